package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/metrics"
)

// Relay owns a Connector and a Publisher and runs the ingest to fan-out pipeline.
// At most one pipeline is active at a time; it is replaced on reconnect.
type Relay[K comparable, V any] struct {
	connector Connector[K, V]
	publisher Publisher[K, V]

	concurrency     int
	unordered       bool
	strictSubscribe bool
	shutdownTimeout time.Duration
	publishTimeout  time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	eventsReceived    atomic.Int64
	eventsDispatched  atomic.Int64
	connections       atomic.Int64
	subscribersAdded  atomic.Int64
	subscribeFailures atomic.Int64
	pipelineActive    atomic.Bool
	lastEventAt       atomic.Int64
}

// Stats is a point-in-time snapshot of relay counters.
type Stats struct {
	EventsReceived    int64
	EventsDispatched  int64
	Connections       int64
	SubscribersAdded  int64
	SubscribeFailures int64
	IsRunning         bool
	PipelineActive    bool
	LastEventAt       time.Time
}

// New creates a relay. A nil connector is replaced by NopConnector, so Start
// reports ErrFatalExhaustion right away.
//
// Example:
//
//	r := relay.New[int32, submission.Update](conn, fanout.New[int32, submission.Update](),
//	    relay.WithConcurrency(10),
//	    relay.WithLogger(log),
//	)
func New[K comparable, V any](connector Connector[K, V], publisher Publisher[K, V], opts ...Option) *Relay[K, V] {
	o := options{
		concurrency:     DefaultConcurrency,
		shutdownTimeout: 30 * time.Second,
		publishTimeout:  DefaultPublishTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if connector == nil {
		connector = NopConnector[K, V]{}
	}

	return &Relay[K, V]{
		connector:       connector,
		publisher:       publisher,
		concurrency:     o.concurrency,
		unordered:       o.unordered,
		strictSubscribe: o.strictSubscribe,
		shutdownTimeout: o.shutdownTimeout,
		publishTimeout:  o.publishTimeout,
		logger:          o.logger.With(logger.Component("relay")),
		metrics:         o.metrics,
	}
}

// Start runs the outer connect loop. It blocks until ctx is cancelled, Stop is
// called, or the connector gives up, in which case the error wraps ErrFatalExhaustion.
func (r *Relay[K, V]) Start(ctx context.Context) error {
	if r.publisher == nil {
		return ErrNilPublisher
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.done == done {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()
		close(done)
	}()

	r.logger.InfoContext(ctx, "relay started",
		logger.Group("dispatch",
			slog.Int("concurrency", r.concurrency),
			slog.Bool("partitioned", !r.unordered),
			slog.Duration("publish_timeout", r.publishTimeout),
		))

	for {
		l, err := r.connector.Connect(ctx)
		if err == nil && l == nil {
			err = ErrNoUpstream
		}
		if err != nil {
			if ctx.Err() != nil {
				r.logger.InfoContext(ctx, "relay stopping")
				return ctx.Err()
			}
			r.logger.ErrorContext(ctx, "connector gave up, relay cannot continue", logger.Error(err))
			return errors.Join(ErrFatalExhaustion, err)
		}

		n := r.connections.Add(1)
		r.metrics.PipelineStarted()
		r.logger.InfoContext(ctx, "upstream connected, pipeline started", slog.Int64("connection", n))

		r.runPipeline(ctx, l)

		if ctx.Err() != nil {
			r.logger.InfoContext(ctx, "relay stopping")
			return ctx.Err()
		}
	}
}

// Stop cancels the loop and waits for the active pipeline to drain.
func (r *Relay[K, V]) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	cancel()

	timer := time.NewTimer(r.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		r.logger.Info("relay stopped cleanly")
		return nil
	case <-timer.C:
		r.logger.Warn("relay shutdown timeout exceeded, in-flight publishes abandoned",
			slog.Duration("timeout", r.shutdownTimeout))
		return fmt.Errorf("relay: shutdown timeout exceeded after %s", r.shutdownTimeout)
	}
}

// Run provides errgroup compatibility. Cancellation is a clean exit;
// ErrFatalExhaustion is returned so the group tears the process down.
func (r *Relay[K, V]) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = r.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// AddSubscriber registers sink for key on the publisher.
//
// Registration failures are logged and swallowed, so the caller always sees success,
// unless the relay was built WithStrictSubscribe. The call yields the processor
// before returning.
func (r *Relay[K, V]) AddSubscriber(ctx context.Context, key K, sink Sink[V]) error {
	defer runtime.Gosched()

	var err error
	switch {
	case sink == nil:
		err = ErrNilSink
	case r.publisher == nil:
		err = ErrNilPublisher
	default:
		err = r.publisher.Subscribe(ctx, key, sink)
	}

	if err == nil {
		r.subscribersAdded.Add(1)
		r.logger.DebugContext(ctx, "subscriber registered", logger.Key(key))
		return nil
	}

	r.subscribeFailures.Add(1)
	r.logger.WarnContext(ctx, "subscriber registration failed", logger.Key(key), logger.Error(err))
	if r.strictSubscribe {
		return errors.Join(ErrSubscribeFailed, err)
	}
	return nil
}

// Publish pushes a single event through the publisher synchronously, bypassing
// the upstream pipeline.
func (r *Relay[K, V]) Publish(ctx context.Context, ev Event[K, V]) {
	if r.publisher == nil {
		return
	}
	r.received()
	r.publish(ctx, ev)
}

// Stats returns current relay counters.
func (r *Relay[K, V]) Stats() Stats {
	r.mu.Lock()
	running := r.cancel != nil
	r.mu.Unlock()

	var last time.Time
	if ts := r.lastEventAt.Load(); ts > 0 {
		last = time.Unix(0, ts)
	}

	return Stats{
		EventsReceived:    r.eventsReceived.Load(),
		EventsDispatched:  r.eventsDispatched.Load(),
		Connections:       r.connections.Load(),
		SubscribersAdded:  r.subscribersAdded.Load(),
		SubscribeFailures: r.subscribeFailures.Load(),
		IsRunning:         running,
		PipelineActive:    r.pipelineActive.Load(),
		LastEventAt:       last,
	}
}

// Healthcheck reports whether the relay loop runs and holds an upstream connection.
func (r *Relay[K, V]) Healthcheck(ctx context.Context) error {
	stats := r.Stats()
	if !stats.IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}
	if !stats.PipelineActive {
		return errors.Join(ErrHealthcheckFailed, ErrPipelineInactive)
	}
	return nil
}

func (r *Relay[K, V]) runPipeline(ctx context.Context, l Listener[K, V]) {
	r.pipelineActive.Store(true)
	defer r.pipelineActive.Store(false)
	start := time.Now()

	defer func() {
		if err := l.Close(); err != nil {
			r.logger.WarnContext(ctx, "failed to close listener", logger.Error(err))
		}
	}()

	events := l.Events(ctx)
	if r.unordered {
		r.dispatchFlat(ctx, events)
	} else {
		r.dispatchPartitioned(ctx, events)
	}

	if ctx.Err() != nil {
		return
	}

	attrs := []any{logger.Elapsed(start)}
	if el, ok := l.(interface{ Err() error }); ok {
		attrs = append(attrs, logger.Error(el.Err()))
	}
	r.logger.WarnContext(ctx, "upstream stream terminated, reconnecting", attrs...)
}

func (r *Relay[K, V]) received() {
	r.eventsReceived.Add(1)
	r.metrics.EventReceived()
}

func (r *Relay[K, V]) publish(ctx context.Context, ev Event[K, V]) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "publisher panicked",
				logger.Key(ev.Key),
				slog.Any("panic", rec))
		}
	}()

	if r.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.publishTimeout)
		defer cancel()
	}

	r.publisher.Publish(ctx, ev)
	r.eventsDispatched.Add(1)
	r.lastEventAt.Store(time.Now().UnixNano())
}
