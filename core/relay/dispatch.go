package relay

import (
	"context"
	"hash/maphash"
	"sync"

	"golang.org/x/sync/errgroup"
)

// laneBuffer is the per-lane queue depth in partitioned dispatch.
const laneBuffer = 16

// dispatchPartitioned routes every event to one of r.concurrency lanes chosen by
// key hash. Each lane publishes sequentially, so events for one key never overlap
// and arrive in upstream order.
func (r *Relay[K, V]) dispatchPartitioned(ctx context.Context, events <-chan Event[K, V]) {
	lanes := make([]chan Event[K, V], r.concurrency)
	var wg sync.WaitGroup
	for i := range lanes {
		lane := make(chan Event[K, V], laneBuffer)
		lanes[i] = lane
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range lane {
				r.publish(ctx, ev)
			}
		}()
	}

	defer func() {
		for _, lane := range lanes {
			close(lane)
		}
		wg.Wait()
	}()

	seed := maphash.MakeSeed()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.received()
			lane := lanes[maphash.Comparable(seed, ev.Key)%uint64(len(lanes))]
			select {
			case lane <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// dispatchFlat bounds in-flight publishes with a single ceiling and no key affinity.
func (r *Relay[K, V]) dispatchFlat(ctx context.Context, events <-chan Event[K, V]) {
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	defer func() { _ = g.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.received()
			g.Go(func() error {
				r.publish(ctx, ev)
				return nil
			})
		}
	}
}
