package replay

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
	maxHistory  int
	buffer      int
	liveForward bool
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// WithTTL sets how long a key's history lives after it was created.
// Zero keeps keys until Close; negative values are ignored.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ttl = d
		}
	}
}

// WithMaxHistory caps the retained payloads per key; the oldest are dropped first.
// Zero means unbounded.
func WithMaxHistory(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxHistory = n
		}
	}
}

// WithBuffer sets the channel size of sinks created by Stream.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// WithoutLiveForward restricts every subscriber to the history present when it
// subscribed. The sink stays open until the key expires.
func WithoutLiveForward() Option {
	return func(o *options) {
		o.liveForward = false
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

// WithMetrics enables buffer and delivery collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
