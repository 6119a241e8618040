package pg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/relay"
)

const closeTimeout = 5 * time.Second

// ListenConfig describes where notifications come from. Exactly one of URL and Pool
// must be set.
type ListenConfig struct {
	URL      string
	Pool     *pgxpool.Pool
	Channels []string
}

// Validate checks the source and channel list.
func (c ListenConfig) Validate() error {
	switch {
	case c.URL == "" && c.Pool == nil:
		return ErrNoListenSource
	case c.URL != "" && c.Pool != nil:
		return ErrAmbiguousSource
	case len(c.Channels) == 0:
		return ErrNoListenChannels
	}
	return nil
}

// Dialer opens a dedicated connection, issues LISTEN for every channel and exposes
// incoming notifications as a relay.Listener. It plugs into connector.New.
type Dialer[K comparable, V any] struct {
	cfg    ListenConfig
	decode relay.Decoder[K, V]
	logger *slog.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(*dialerOptions)

type dialerOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for skipped notifications.
func WithLogger(log *slog.Logger) DialerOption {
	return func(o *dialerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewDialer validates cfg and returns a notification dialer.
func NewDialer[K comparable, V any](cfg ListenConfig, decode relay.Decoder[K, V], opts ...DialerOption) (*Dialer[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if decode == nil {
		return nil, ErrNilDecoder
	}

	o := dialerOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	return &Dialer[K, V]{
		cfg:    cfg,
		decode: decode,
		logger: o.logger.With(logger.Component("pg_listener")),
	}, nil
}

// Dial implements connector.Dialer.
func (d *Dialer[K, V]) Dial(ctx context.Context) (relay.Listener[K, V], error) {
	conn, err := d.connect(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectPG, err)
	}

	release := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return conn.Close(ctx)
	}

	for _, ch := range d.cfg.Channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			_ = release()
			return nil, errors.Join(ErrListenFailed, err)
		}
	}

	d.logger.InfoContext(ctx, "listening for notifications", slog.Any("channels", d.cfg.Channels))
	return relay.NewListener(d.pump(conn), release), nil
}

func (d *Dialer[K, V]) connect(ctx context.Context) (*pgx.Conn, error) {
	if d.cfg.Pool != nil {
		pc, err := d.cfg.Pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return pc.Hijack(), nil
	}
	return pgx.Connect(ctx, d.cfg.URL)
}

func (d *Dialer[K, V]) pump(conn *pgx.Conn) relay.PumpFunc[K, V] {
	return func(ctx context.Context, emit func(relay.Event[K, V]) bool) error {
		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				return err
			}

			key, payload, err := d.decode(n.Channel, []byte(n.Payload))
			if err != nil {
				d.logger.WarnContext(ctx, "skipping undecodable notification",
					logger.Source(n.Channel),
					logger.Error(err))
				continue
			}

			if !emit(relay.Event[K, V]{Key: key, Payload: payload}) {
				return ctx.Err()
			}
		}
	}
}
