package connector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/metrics"
	"github.com/dmitrymomot/rtss/core/relay"
)

// DefaultWindow is the minimum spacing between two connection attempts.
const DefaultWindow = 180 * time.Second

// Dialer establishes one upstream connection, subscribes to the configured channels
// or queues and wraps the result as a Listener.
type Dialer[K comparable, V any] interface {
	Dial(ctx context.Context) (relay.Listener[K, V], error)
}

// DialFunc adapts a function to Dialer.
type DialFunc[K comparable, V any] func(ctx context.Context) (relay.Listener[K, V], error)

// Dial implements Dialer.
func (f DialFunc[K, V]) Dial(ctx context.Context) (relay.Listener[K, V], error) {
	return f(ctx)
}

// Retrying is a relay.Connector with fixed-interval retry.
//
// Every attempt first waits for the previous cool-down to elapse and then starts a new
// one, so attempts are spaced at least one window apart while a successful attempt
// returns without delay. Connect calls are serialized by a single guard token.
type Retrying[K comparable, V any] struct {
	dialer      Dialer[K, V]
	window      time.Duration
	maxAttempts int
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics

	guard    chan struct{}
	cooldown <-chan time.Time
}

// New creates a retrying connector around dialer.
func New[K comparable, V any](dialer Dialer[K, V], opts ...Option) *Retrying[K, V] {
	o := options{
		window: DefaultWindow,
		clock:  clock.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Retrying[K, V]{
		dialer:      dialer,
		window:      o.window,
		maxAttempts: o.maxAttempts,
		clock:       o.clock,
		logger:      o.logger.With(logger.Component("connector")),
		metrics:     o.metrics,
		guard:       make(chan struct{}, 1),
	}
}

// Connect dials until it succeeds, the attempt budget is spent, or ctx is done.
// Any returned error is permanent for the relay.
func (c *Retrying[K, V]) Connect(ctx context.Context) (relay.Listener[K, V], error) {
	if c.dialer == nil {
		return nil, ErrNilDialer
	}

	for attempt := 1; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		l, err := c.dialer.Dial(ctx)
		if err == nil && l != nil {
			c.metrics.ConnectAttempt(true)
			c.logger.InfoContext(ctx, "upstream connection established", logger.Attempt(attempt))
			return l, nil
		}
		if err == nil {
			err = ErrNilListener
		}

		c.metrics.ConnectAttempt(false)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			c.logger.ErrorContext(ctx, "upstream connection attempts exhausted",
				logger.Attempt(attempt),
				logger.Error(err))
			return nil, errors.Join(ErrGaveUp, err)
		}

		c.logger.WarnContext(ctx, "upstream connection failed, retrying",
			logger.Attempt(attempt),
			slog.Duration("window", c.window),
			logger.Error(err))
	}
}

// pace holds the guard token while it waits out the outstanding cool-down and
// arms the next one.
func (c *Retrying[K, V]) pace(ctx context.Context) error {
	select {
	case c.guard <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.guard }()

	if c.cooldown != nil {
		select {
		case <-c.cooldown:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.cooldown = c.clock.After(c.window)
	return nil
}
