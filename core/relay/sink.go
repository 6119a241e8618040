package relay

import (
	"context"
	"sync"
)

// Sink is a push-only handle to one subscriber's delivery channel.
//
// Send may fail at any time; a failed Send is terminal for the sink. Done is closed
// once the sink is closed, by either side.
type Sink[V any] interface {
	Send(ctx context.Context, v V) error
	Done() <-chan struct{}
	Close() error
}

// TrySender is implemented by sinks that can accept a value without waiting.
// Publishers that must not stall on a slow subscriber prefer it over Send.
type TrySender[V any] interface {
	TrySend(v V) error
}

// ChanSink is an in-process Sink backed by a buffered channel. The transport reads C
// and stops when Done is closed.
//
// The data channel itself is never closed, so a Send racing with Close cannot panic.
type ChanSink[V any] struct {
	ch   chan V
	done chan struct{}
	once sync.Once
}

// NewChanSink creates a sink with the given buffer size. Negative sizes are treated as zero.
func NewChanSink[V any](buffer int) *ChanSink[V] {
	if buffer < 0 {
		buffer = 0
	}
	return &ChanSink[V]{
		ch:   make(chan V, buffer),
		done: make(chan struct{}),
	}
}

// Send blocks until v is buffered, the sink is closed or ctx is done.
func (s *ChanSink[V]) Send(ctx context.Context, v V) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.ch <- v:
		return nil
	case <-s.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend buffers v if there is room. A full buffer fails with ErrSinkFull.
func (s *ChanSink[V]) TrySend(v V) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.ch <- v:
		return nil
	default:
		return ErrSinkFull
	}
}

// C returns the receiving side.
func (s *ChanSink[V]) C() <-chan V {
	return s.ch
}

// Done is closed after Close.
func (s *ChanSink[V]) Done() <-chan struct{} {
	return s.done
}

// Close marks the sink dead. It is idempotent.
func (s *ChanSink[V]) Close() error {
	s.once.Do(func() {
		close(s.done)
	})
	return nil
}
