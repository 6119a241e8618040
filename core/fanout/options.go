package fanout

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dmitrymomot/rtss/core/metrics"
)

// Option configures a Publisher.
type Option func(*options)

type options struct {
	ttl         time.Duration
	sendTimeout time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// WithTTL sets the fixed subscription lifetime. Zero disables eviction;
// negative values are ignored.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ttl = d
		}
	}
}

// WithSendTimeout lets a push wait up to d for room in a full sink before the
// sink is treated as dead. Zero, the default, never waits: a sink that
// implements relay.TrySender fails the push as soon as it is full.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sendTimeout = d
		}
	}
}

// WithClock replaces the wall clock used for eviction timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMetrics enables subscription and delivery collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
