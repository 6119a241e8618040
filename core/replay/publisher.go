package replay

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
const Name = "replay"

// DefaultTTL is the fixed lifetime of a key's buffer.
const DefaultTTL = 30 * time.Second

// DefaultBuffer is the channel size of sinks created by Stream.
const DefaultBuffer = 16

// Publisher is the replaying relay.Publisher. It keeps an ordered history per key
// and serves it to every subscriber, including ones that join late.
//
// Each subscriber is fed by its own cursor over the key's history, so the replayed
// items and later writes reach it in write order. Key state lives for a fixed TTL
// from its creation; when it expires, the history is dropped and the key's sinks are
// closed after they drained what was written before.
type Publisher[K comparable, V any] struct {
	keys        sync.Map // K -> *keyState[V]
	keyCount    atomic.Int64
	subscribers atomic.Int64

	ttl         time.Duration
	maxHistory  int
	buffer      int
	liveForward bool
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders key creation and feeder start against Close.
	mu     sync.RWMutex
	closed bool
}

// New creates a replaying publisher. Call Close to stop its feeder goroutines.
func New[K comparable, V any](opts ...Option) *Publisher[K, V] {
	o := options{
		ttl:         DefaultTTL,
		buffer:      DefaultBuffer,
		liveForward: true,
		clock:       clock.New(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher[K, V]{
		ttl:         o.ttl,
		maxHistory:  o.maxHistory,
		buffer:      o.buffer,
		liveForward: o.liveForward,
		clock:       o.clock,
		logger:      o.logger.With(logger.Component("replay")),
		metrics:     o.metrics,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Append adds payload to the key's history, creating the key state on first use.
func (p *Publisher[K, V]) Append(key K, payload V) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	for {
		st := p.state(key)
		if st.append(payload, p.maxHistory) {
			return
		}
	}
}

// Publish implements relay.Publisher by appending the event payload.
func (p *Publisher[K, V]) Publish(_ context.Context, ev relay.Event[K, V]) {
	p.Append(ev.Key, ev.Payload)
}

// Subscribe attaches sink to key. The sink first receives the retained history in
// order, then every later write unless live forwarding is disabled.
func (p *Publisher[K, V]) Subscribe(ctx context.Context, key K, sink relay.Sink[V]) error {
	if sink == nil {
		return relay.ErrNilSink
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	var (
		st   *keyState[V]
		from int
		size int
	)
	for {
		st = p.state(key)
		var ok bool
		if from, size, ok = st.position(); ok {
			break
		}
	}

	until := -1
	if !p.liveForward {
		until = from + size
	}

	id := uuid.New()
	p.subscribers.Add(1)
	p.metrics.SubscriberAdded(Name)
	p.logger.DebugContext(ctx, "replay subscriber added",
		logger.Key(key),
		logger.SubscriptionID(id.String()),
		logger.Count("history", size))

	p.wg.Add(1)
	go p.feed(key, st, id, sink, from, until)
	return nil
}

// Stream is the channel flavour of Subscribe: it returns a fresh sink bound to key.
func (p *Publisher[K, V]) Stream(ctx context.Context, key K) (*relay.ChanSink[V], error) {
	sink := relay.NewChanSink[V](p.buffer)
	if err := p.Subscribe(ctx, key, sink); err != nil {
		_ = sink.Close()
		return nil, err
	}
	return sink, nil
}

// History returns a copy of the retained payloads for key, or nil.
func (p *Publisher[K, V]) History(key K) []V {
	v, ok := p.keys.Load(key)
	if !ok {
		return nil
	}
	return v.(*keyState[V]).snapshot()
}

// Len returns the number of keys holding state.
func (p *Publisher[K, V]) Len() int {
	return int(p.keyCount.Load())
}

// Subscribers returns the number of attached sinks.
func (p *Publisher[K, V]) Subscribers() int {
	return int(p.subscribers.Load())
}

// Close evicts every key and waits for feeders to finish.
func (p *Publisher[K, V]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.keys.Range(func(k, v any) bool {
		p.evict(k.(K), v.(*keyState[V]), ReasonClosed)
		return true
	})
	p.cancel()
	p.wg.Wait()
	return nil
}

// state returns the live state for key, creating it and arming its eviction when absent.
func (p *Publisher[K, V]) state(key K) *keyState[V] {
	for {
		v, loaded := p.keys.Load(key)
		if !loaded {
			st := newKeyState[V]()
			v, loaded = p.keys.LoadOrStore(key, st)
			if !loaded {
				p.keyCount.Add(1)
				p.metrics.KeyBuffered()
				if p.ttl > 0 {
					st.arm(p.clock, p.ttl, func() { p.evict(key, st, ReasonExpired) })
				}
				return st
			}
		}

		st := v.(*keyState[V])
		if !st.isGone() {
			return st
		}
		p.keys.CompareAndDelete(key, st)
	}
}

func (p *Publisher[K, V]) evict(key K, st *keyState[V], reason string) {
	if !st.markGone() {
		return
	}
	p.keys.CompareAndDelete(key, st)
	p.keyCount.Add(-1)
	p.metrics.KeyEvicted()
	p.logger.Debug("replay key evicted", logger.Key(key), logger.Reason(reason))
}

// feed pushes history from cursor from to sink. until < 0 means follow live writes.
func (p *Publisher[K, V]) feed(key K, st *keyState[V], id uuid.UUID, sink relay.Sink[V], from, until int) {
	defer p.wg.Done()

	reason := ReasonEvicted
	defer func() {
		_ = sink.Close()
		p.subscribers.Add(-1)
		p.metrics.SubscriberRemoved(Name, reason)
		p.logger.Debug("replay subscriber removed",
			logger.Key(key),
			logger.SubscriptionID(id.String()),
			logger.Reason(reason))
	}()

	cursor := from
	for {
		pending, next, notify, gone, lost := st.read(cursor, until)
		if lost > 0 {
			p.logger.Warn("replay subscriber lagged behind history limit",
				logger.Key(key),
				logger.SubscriptionID(id.String()),
				logger.Count("lost", lost))
		}
		cursor = next

		for _, v := range pending {
			if err := sink.Send(p.ctx, v); err != nil {
				p.metrics.Delivered(Name, metrics.ResultFailed)
				reason = ReasonSendFailed
				if p.ctx.Err() != nil {
					reason = ReasonClosed
				}
				return
			}
			p.metrics.Delivered(Name, metrics.ResultDelivered)
			cursor++
		}
		if len(pending) > 0 {
			continue
		}

		if gone {
			return
		}
		if until >= 0 && cursor >= until {
			notify = nil
		}

		select {
		case <-notify:
		case <-st.evicted:
		case <-sink.Done():
			reason = ReasonSinkClosed
			return
		case <-p.ctx.Done():
			reason = ReasonClosed
			return
		}
	}
}
