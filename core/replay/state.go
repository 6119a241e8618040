package replay

import (
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// keyState is the history of one key. Positions are absolute: item i of items is
// write number dropped+i.
type keyState[V any] struct {
	mu      sync.Mutex
	items   []V
	dropped int
	notify  chan struct{}
	evicted chan struct{}
	gone    bool
	timer   *clock.Timer
}

func newKeyState[V any]() *keyState[V] {
	return &keyState[V]{
		notify:  make(chan struct{}),
		evicted: make(chan struct{}),
	}
}

func (s *keyState[V]) arm(c clock.Clock, ttl time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gone {
		s.timer = c.AfterFunc(ttl, fn)
	}
}

// markGone flips the state to evicted. It reports false if it already was.
func (s *keyState[V]) markGone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return false
	}
	s.gone = true
	close(s.evicted)
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

func (s *keyState[V]) isGone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gone
}

// append wakes all cursors. It reports false when the state was evicted meanwhile.
func (s *keyState[V]) append(v V, maxHistory int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return false
	}

	s.items = append(s.items, v)
	if maxHistory > 0 && len(s.items) > maxHistory {
		n := len(s.items) - maxHistory
		clear(s.items[:n])
		s.items = s.items[n:]
		s.dropped += n
	}

	close(s.notify)
	s.notify = make(chan struct{})
	return true
}

// position returns the first retained position and the current history length.
func (s *keyState[V]) position() (from, size int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return 0, 0, false
	}
	return s.dropped, len(s.items), true
}

// read returns the items from cursor up to until (or the end when until < 0), the
// cursor the caller should continue from and the number of positions that were
// trimmed before the caller got to them.
func (s *keyState[V]) read(cursor, until int) (pending []V, next int, notify <-chan struct{}, gone bool, lost int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cursor < s.dropped {
		lost = s.dropped - cursor
		cursor = s.dropped
	}

	end := s.dropped + len(s.items)
	if until >= 0 && end > until {
		end = until
	}
	if end > cursor {
		pending = slices.Clone(s.items[cursor-s.dropped : end-s.dropped])
	}
	return pending, cursor, s.notify, s.gone, lost
}

func (s *keyState[V]) snapshot() []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}
