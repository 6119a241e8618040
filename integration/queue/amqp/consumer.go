package amqp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/relay"
)

// Dialer consumes a non-durable queue and exposes its deliveries as a relay.Listener.
// It plugs into connector.New.
//
// Deliveries are acknowledged once handed to the relay. Deliveries that fail to
// decode are logged and acknowledged too, so a poison message is not redelivered.
type Dialer[K comparable, V any] struct {
	url      string
	queue    string
	tag      string
	prefetch int
	decode   relay.Decoder[K, V]
	logger   *slog.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(*dialerOptions)

type dialerOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for skipped deliveries.
func WithLogger(log *slog.Logger) DialerOption {
	return func(o *dialerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewDialer returns a queue consumer dialer for cfg.
func NewDialer[K comparable, V any](cfg Config, decode relay.Decoder[K, V], opts ...DialerOption) (*Dialer[K, V], error) {
	switch {
	case cfg.Host == "":
		return nil, ErrEmptyHost
	case cfg.QueueEnv == "":
		return nil, ErrEmptyQueue
	case decode == nil:
		return nil, ErrNilDecoder
	}

	o := dialerOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	tag := cfg.ConsumerTag
	if tag == "" {
		tag = "rtss"
	}

	return &Dialer[K, V]{
		url:      cfg.URL(),
		queue:    cfg.QueueName(),
		tag:      tag,
		prefetch: cfg.Prefetch,
		decode:   decode,
		logger:   o.logger.With(logger.Component("amqp_consumer")),
	}, nil
}

// Dial implements connector.Dialer.
func (d *Dialer[K, V]) Dial(ctx context.Context) (relay.Listener[K, V], error) {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return nil, errors.Join(ErrDialFailed, err)
	}

	ch, deliveries, err := d.setup(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrSetupFailed, err)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	release := func() error {
		var errs []error
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	d.logger.InfoContext(ctx, "consuming queue", logger.Source(d.queue))
	return relay.NewListener(d.pump(deliveries, closed), release), nil
}

func (d *Dialer[K, V]) setup(conn *amqp.Connection) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	if d.prefetch > 0 {
		if err := ch.Qos(d.prefetch, 0, false); err != nil {
			return nil, nil, err
		}
	}
	if _, err := ch.QueueDeclare(d.queue, false, false, false, false, nil); err != nil {
		return nil, nil, err
	}
	deliveries, err := ch.Consume(d.queue, d.tag, false, false, false, false, nil)
	if err != nil {
		return nil, nil, err
	}
	return ch, deliveries, nil
}

func (d *Dialer[K, V]) pump(deliveries <-chan amqp.Delivery, closed <-chan *amqp.Error) relay.PumpFunc[K, V] {
	return func(ctx context.Context, emit func(relay.Event[K, V]) bool) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-closed:
				if ok && err != nil {
					return errors.Join(ErrConnectionClosed, err)
				}
				return ErrConnectionClosed
			case dv, ok := <-deliveries:
				if !ok {
					return ErrConsumerClosed
				}

				key, payload, err := d.decode(d.queue, dv.Body)
				if err != nil {
					d.logger.WarnContext(ctx, "skipping undecodable delivery",
						logger.Source(d.queue),
						logger.Error(err))
					d.ack(ctx, dv)
					continue
				}

				if !emit(relay.Event[K, V]{Key: key, Payload: payload}) {
					return ctx.Err()
				}
				d.ack(ctx, dv)
			}
		}
	}
}

func (d *Dialer[K, V]) ack(ctx context.Context, dv amqp.Delivery) {
	if err := dv.Ack(false); err != nil {
		d.logger.WarnContext(ctx, "failed to ack delivery",
			slog.Uint64("delivery_tag", dv.DeliveryTag),
			logger.Error(err))
	}
}
