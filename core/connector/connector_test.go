package connector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rtss/core/connector"
	"github.com/dmitrymomot/rtss/core/relay"
)

var errRefused = errors.New("connection refused")

func TestRetrying_Pacing(t *testing.T) {
	t.Parallel()

	const window = 3 * time.Minute
	mock := clock.NewMock()
	attempts := make(chan time.Time)

	conn := connector.New[int, string](
		connector.DialFunc[int, string](func(context.Context) (relay.Listener[int, string], error) {
			attempts <- mock.Now()
			return nil, errRefused
		}),
		connector.WithWindow(window),
		connector.WithMaxAttempts(4),
		connector.WithClock(mock),
	)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.Connect(context.Background())
		errCh <- err
	}()

	var times []time.Time
	for i := range 4 {
		times = append(times, <-attempts)
		if i < 3 {
			mock.Add(window)
		}
	}

	err := <-errCh
	require.ErrorIs(t, err, connector.ErrGaveUp)
	assert.ErrorIs(t, err, errRefused)

	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), window)
	}
}

func TestRetrying_WaitsForCooldown(t *testing.T) {
	t.Parallel()

	const window = time.Minute
	mock := clock.NewMock()
	conn := connector.New[int, string](
		connector.DialFunc[int, string](func(context.Context) (relay.Listener[int, string], error) {
			return relay.SliceListener[int, string](), nil
		}),
		connector.WithWindow(window),
		connector.WithClock(mock),
	)

	l, err := conn.Connect(context.Background())
	require.NoError(t, err, "first attempt is not delayed")
	require.NotNil(t, l)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = conn.Connect(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("second attempt ignored the cool-down")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(window)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second attempt did not proceed after the window")
	}
}

func TestRetrying_ContextCancelled(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	conn := connector.New[int, string](
		connector.DialFunc[int, string](func(context.Context) (relay.Listener[int, string], error) {
			return nil, errRefused
		}),
		connector.WithClock(mock),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := conn.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetrying_InvalidDialer(t *testing.T) {
	t.Parallel()

	_, err := connector.New[int, string](nil).Connect(context.Background())
	require.ErrorIs(t, err, connector.ErrNilDialer)

	conn := connector.New[int, string](
		connector.DialFunc[int, string](func(context.Context) (relay.Listener[int, string], error) {
			return nil, nil
		}),
		connector.WithMaxAttempts(1),
	)
	_, err = conn.Connect(context.Background())
	require.ErrorIs(t, err, connector.ErrGaveUp)
	assert.ErrorIs(t, err, connector.ErrNilListener)
}

func TestRetrying_RelayIntegration(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	conn := connector.New[int, string](
		connector.DialFunc[int, string](func(context.Context) (relay.Listener[int, string], error) {
			return nil, errRefused
		}),
		connector.WithClock(mock),
		connector.WithMaxAttempts(1),
	)

	r := relay.New[int, string](conn, nopPublisher{})
	err := r.Start(context.Background())
	require.ErrorIs(t, err, relay.ErrFatalExhaustion)
	assert.ErrorIs(t, err, connector.ErrGaveUp)
}

type nopPublisher struct{}

func (nopPublisher) Subscribe(context.Context, int, relay.Sink[string]) error { return nil }
func (nopPublisher) Publish(context.Context, relay.Event[int, string])      {}
