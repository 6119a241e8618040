package connector

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dmitrymomot/rtss/core/metrics"
)

// Option configures a Retrying connector.
type Option func(*options)

type options struct {
	window      time.Duration
	maxAttempts int
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// WithWindow sets the cool-down between attempts. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithMaxAttempts makes the connector give up after n consecutive failures.
// Zero, the default, retries forever.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxAttempts = n
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
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

// WithMetrics records connection attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
