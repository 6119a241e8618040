package relay

import "context"

// Event is a single change notification correlated with subscribers by Key.
// The relay never inspects or mutates Payload.
type Event[K comparable, V any] struct {
	Key     K
	Payload V
}

// Listener exposes the events of one upstream connection.
//
// Events may be consumed once. The returned channel is closed when the upstream
// connection ends or ctx is done; a second call returns an already closed channel.
// A terminated Listener is never reused: a new one must come from the Connector.
type Listener[K comparable, V any] interface {
	Events(ctx context.Context) <-chan Event[K, V]
	Close() error
}

// Connector produces fresh Listener instances and owns the reconnection policy.
//
// A nil error comes with a live Listener. Any error means the connector has given up
// for good; the relay treats it as fatal.
type Connector[K comparable, V any] interface {
	Connect(ctx context.Context) (Listener[K, V], error)
}

// Publisher maps keys to subscriber sinks and performs delivery.
//
// Publish never fails from the caller's point of view: an unknown key is a no-op and
// sink failures are handled by removing the subscription.
type Publisher[K comparable, V any] interface {
	Subscribe(ctx context.Context, key K, sink Sink[V]) error
	Publish(ctx context.Context, event Event[K, V])
}

// NopConnector is the connector used when no upstream is configured.
// It always reports ErrNoUpstream.
type NopConnector[K comparable, V any] struct{}

// Connect implements Connector.
func (NopConnector[K, V]) Connect(context.Context) (Listener[K, V], error) {
	return nil, ErrNoUpstream
}
