package relay

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/rtss/core/metrics"
)

// DefaultConcurrency is the ceiling of in-flight publish tasks per pipeline.
const DefaultConcurrency = 10

// DefaultPublishTimeout bounds one Publisher.Publish call.
const DefaultPublishTimeout = 5 * time.Second

// Option configures a Relay.
type Option func(*options)

type options struct {
	concurrency     int
	unordered       bool
	strictSubscribe bool
	shutdownTimeout time.Duration
	publishTimeout  time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

// WithConcurrency sets the number of publish tasks that may run at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithUnorderedDispatch drops key partitioning. Publishes share one flat
// concurrency ceiling and two events for the same key may be delivered out of order.
func WithUnorderedDispatch() Option {
	return func(o *options) {
		o.unordered = true
	}
}

// WithStrictSubscribe makes AddSubscriber return publisher registration errors
// instead of logging and swallowing them.
func WithStrictSubscribe() Option {
	return func(o *options) {
		o.strictSubscribe = true
	}
}

// WithShutdownTimeout bounds how long Stop waits for the pipeline to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithPublishTimeout sets the deadline of the context passed to each publish, so
// a publisher blocked on one key cannot hold its dispatch lane for longer.
// Zero removes the deadline.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.publishTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the relay.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMetrics enables Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
