package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/relay"
)

// Dialer subscribes to Pub/Sub channels and exposes the messages as a relay.Listener.
// It plugs into connector.New.
type Dialer[K comparable, V any] struct {
	client   redis.UniversalClient
	channels []string
	decode   relay.Decoder[K, V]
	logger   *slog.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(*dialerOptions)

type dialerOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for skipped messages.
func WithLogger(log *slog.Logger) DialerOption {
	return func(o *dialerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewDialer returns a Pub/Sub dialer over client.
func NewDialer[K comparable, V any](client redis.UniversalClient, channels []string, decode relay.Decoder[K, V], opts ...DialerOption) (*Dialer[K, V], error) {
	switch {
	case client == nil:
		return nil, ErrNilClient
	case len(channels) == 0:
		return nil, ErrNoChannels
	case decode == nil:
		return nil, ErrNilDecoder
	}

	o := dialerOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	return &Dialer[K, V]{
		client:   client,
		channels: channels,
		decode:   decode,
		logger:   o.logger.With(logger.Component("redis_listener")),
	}, nil
}

// Dial implements connector.Dialer. The subscription is confirmed before returning.
func (d *Dialer[K, V]) Dial(ctx context.Context) (relay.Listener[K, V], error) {
	ps := d.client.Subscribe(ctx, d.channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	d.logger.InfoContext(ctx, "subscribed to pub/sub channels", slog.Any("channels", d.channels))
	return relay.NewListener(d.pump(ps), ps.Close), nil
}

func (d *Dialer[K, V]) pump(ps *redis.PubSub) relay.PumpFunc[K, V] {
	return func(ctx context.Context, emit func(relay.Event[K, V]) bool) error {
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				return err
			}

			key, payload, err := d.decode(msg.Channel, []byte(msg.Payload))
			if err != nil {
				d.logger.WarnContext(ctx, "skipping undecodable message",
					logger.Source(msg.Channel),
					logger.Error(err))
				continue
			}

			if !emit(relay.Event[K, V]{Key: key, Payload: payload}) {
				return ctx.Err()
			}
		}
	}
}
