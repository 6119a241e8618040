package relay

import (
	"context"
	"sync"
	"sync/atomic"
)

// PumpFunc reads one upstream connection and hands every event to emit.
// It returns when the connection ends, ctx is done, or emit reports false.
type PumpFunc[K comparable, V any] func(ctx context.Context, emit func(Event[K, V]) bool) error

// PumpListener adapts a receive loop into a single-use Listener.
// Upstream adapters only implement the loop; consumption rules live here.
type PumpListener[K comparable, V any] struct {
	pump   PumpFunc[K, V]
	closer func() error

	consumed  atomic.Bool
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	err     error
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewListener builds a Listener from pump. closer releases the upstream connection
// and may be nil; it runs only after the pump returned.
func NewListener[K comparable, V any](pump PumpFunc[K, V], closer func() error) *PumpListener[K, V] {
	return &PumpListener[K, V]{pump: pump, closer: closer}
}

// Events starts the pump on first call. Later calls get a closed channel.
func (l *PumpListener[K, V]) Events(ctx context.Context) <-chan Event[K, V] {
	ch := make(chan Event[K, V])
	if !l.consumed.CompareAndSwap(false, true) {
		close(ch)
		return ch
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	l.mu.Lock()
	l.cancel = cancel
	l.stopped = stopped
	l.mu.Unlock()

	go func() {
		defer close(stopped)
		defer close(ch)
		err := l.pump(ctx, func(ev Event[K, V]) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
		}
	}()

	return ch
}

// Err reports why the event sequence ended, if the pump failed.
// It is meaningful only after the Events channel is closed.
func (l *PumpListener[K, V]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close stops the pump, waits for it to return and releases the upstream connection.
// It is safe to call more than once.
func (l *PumpListener[K, V]) Close() error {
	l.closeOnce.Do(func() {
		l.consumed.Store(true)

		l.mu.Lock()
		cancel, stopped := l.cancel, l.stopped
		l.mu.Unlock()

		if cancel != nil {
			cancel()
			<-stopped
		}
		if l.closer != nil {
			l.closeErr = l.closer()
		}
	})
	return l.closeErr
}

// SliceListener replays a fixed sequence and then ends it. Useful for tests and
// for backfilling a relay from a snapshot.
func SliceListener[K comparable, V any](events ...Event[K, V]) *PumpListener[K, V] {
	return NewListener(func(ctx context.Context, emit func(Event[K, V]) bool) error {
		for _, ev := range events {
			if !emit(ev) {
				return ctx.Err()
			}
		}
		return nil
	}, nil)
}
