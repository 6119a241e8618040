package fanout

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/metrics"
	"github.com/dmitrymomot/rtss/core/relay"
)

// Name labels this publisher in metrics.
const Name = "direct"

// DefaultTTL is the fixed lifetime of a subscription.
const DefaultTTL = 30 * time.Second

// Removal reasons.
const (
	ReasonReplaced   = "replaced"
	ReasonExpired    = "expired"
	ReasonSendFailed = "send_failed"
	ReasonClosed     = "closed"
)

type subscription[V any] struct {
	id   uuid.UUID
	sink relay.Sink[V]

	mu      sync.Mutex
	timer   *clock.Timer
	stopped bool
}

func (s *subscription[V]) arm(c clock.Clock, ttl time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.timer = c.AfterFunc(ttl, fn)
	}
}

func (s *subscription[V]) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Publisher is the direct fan-out relay.Publisher: at most one live sink per key,
// last writer wins, push and forget.
//
// Entries live in a sync.Map so unrelated keys never contend on one lock. Every
// subscription gets a fixed deadline that is not extended by activity; removals are
// conditional on the entry still being the same subscription, so a replaced or
// failed entry never takes its successor down.
type Publisher[K comparable, V any] struct {
	subs  sync.Map // K -> *subscription[V]
	count atomic.Int64

	ttl         time.Duration
	sendTimeout time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// mu orders Subscribe against Close; Publish does not take it.
	mu     sync.RWMutex
	closed bool
}

// New creates a direct publisher.
func New[K comparable, V any](opts ...Option) *Publisher[K, V] {
	o := options{
		ttl:    DefaultTTL,
		clock:  clock.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Publisher[K, V]{
		ttl:         o.ttl,
		sendTimeout: o.sendTimeout,
		clock:       o.clock,
		logger:      o.logger.With(logger.Component("fanout")),
		metrics:     o.metrics,
	}
}

// Subscribe binds sink to key, replacing and closing any previous sink for that key.
func (p *Publisher[K, V]) Subscribe(ctx context.Context, key K, sink relay.Sink[V]) error {
	if sink == nil {
		return relay.ErrNilSink
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	sub := &subscription[V]{id: uuid.New(), sink: sink}
	prev, replaced := p.subs.Swap(key, sub)
	p.metrics.SubscriberAdded(Name)

	if replaced {
		old := prev.(*subscription[V])
		old.stop()
		_ = old.sink.Close()
		p.metrics.SubscriberRemoved(Name, ReasonReplaced)
		p.logger.DebugContext(ctx, "subscription replaced",
			logger.Key(key),
			logger.SubscriptionID(old.id.String()))
	} else {
		p.count.Add(1)
	}

	if p.ttl > 0 {
		sub.arm(p.clock, p.ttl, func() {
			p.remove(context.Background(), key, sub, ReasonExpired)
		})
	}

	p.logger.DebugContext(ctx, "subscription added",
		logger.Key(key),
		logger.SubscriptionID(sub.id.String()))
	return nil
}

// Publish pushes the payload to the key's sink. An unknown key is a no-op; a failed
// push, including one into a full sink, removes the subscription and drops the
// event for it.
func (p *Publisher[K, V]) Publish(ctx context.Context, ev relay.Event[K, V]) {
	v, ok := p.subs.Load(ev.Key)
	if !ok {
		return
	}
	sub := v.(*subscription[V])

	if err := p.push(ctx, sub.sink, ev.Payload); err != nil {
		p.metrics.Delivered(Name, metrics.ResultFailed)
		if p.remove(ctx, ev.Key, sub, ReasonSendFailed) {
			p.logger.DebugContext(ctx, "subscriber dropped after failed push",
				logger.Key(ev.Key),
				logger.SubscriptionID(sub.id.String()),
				logger.Error(err))
		}
		return
	}
	p.metrics.Delivered(Name, metrics.ResultDelivered)
}

func (p *Publisher[K, V]) push(ctx context.Context, sink relay.Sink[V], v V) error {
	if p.sendTimeout == 0 {
		if ts, ok := sink.(relay.TrySender[V]); ok {
			return ts.TrySend(v)
		}
		return sink.Send(ctx, v)
	}

	ctx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	return sink.Send(ctx, v)
}

// Len returns the number of live subscriptions.
func (p *Publisher[K, V]) Len() int {
	return int(p.count.Load())
}

// Has reports whether key has a live subscription.
func (p *Publisher[K, V]) Has(key K) bool {
	_, ok := p.subs.Load(key)
	return ok
}

// Close removes every subscription and closes its sink. Later Subscribe calls fail
// with ErrClosed.
func (p *Publisher[K, V]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.subs.Range(func(k, v any) bool {
		p.remove(context.Background(), k.(K), v.(*subscription[V]), ReasonClosed)
		return true
	})
	return nil
}

func (p *Publisher[K, V]) remove(ctx context.Context, key K, sub *subscription[V], reason string) bool {
	if !p.subs.CompareAndDelete(key, sub) {
		return false
	}
	p.count.Add(-1)
	sub.stop()
	_ = sub.sink.Close()
	p.metrics.SubscriberRemoved(Name, reason)
	p.logger.DebugContext(ctx, "subscription removed",
		logger.Key(key),
		logger.SubscriptionID(sub.id.String()),
		logger.Reason(reason))
	return true
}
