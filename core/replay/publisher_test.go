package replay_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/core/replay"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive[V any](t *testing.T, sink *relay.ChanSink[V], n int) []V {
	t.Helper()
	out := make([]V, 0, n)
	for len(out) < n {
		select {
		case v := <-sink.C():
			out = append(out, v)
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d items", len(out), n)
		}
	}
	return out
}

func assertSilent[V any](t *testing.T, sink *relay.ChanSink[V]) {
	t.Helper()
	select {
	case v := <-sink.C():
		t.Fatalf("unexpected item %v", v)
	case <-time.After(30 * time.Millisecond):
	}
}

func newPublisher(t *testing.T, opts ...replay.Option) *replay.Publisher[string, string] {
	t.Helper()
	p := replay.New[string, string](append([]replay.Option{replay.WithClock(clock.NewMock())}, opts...)...)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPublisher_LateJoiner(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	p.Append("42", `{"score":10}`)
	p.Append("42", `{"score":20}`)

	sink, err := p.Stream(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"score":10}`, `{"score":20}`}, receive(t, sink, 2))
	assertSilent(t, sink)

	p.Append("42", `{"score":30}`)
	assert.Equal(t, []string{`{"score":30}`}, receive(t, sink, 1))
}

func TestPublisher_MultipleSubscribers(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	first, err := p.Stream(context.Background(), "7")
	require.NoError(t, err)
	second, err := p.Stream(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Subscribers())

	p.Publish(context.Background(), relay.Event[string, string]{Key: "7", Payload: `{"status":"done"}`})

	assert.Equal(t, []string{`{"status":"done"}`}, receive(t, first, 1))
	assert.Equal(t, []string{`{"status":"done"}`}, receive(t, second, 1))
	assertSilent(t, first)
	assertSilent(t, second)
}

func TestPublisher_HistoryBeforeLive(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	want := make([]string, 0, 200)
	for i := range 100 {
		want = append(want, strconv.Itoa(i))
		p.Append("k", strconv.Itoa(i))
	}

	sink := relay.NewChanSink[string](0)
	require.NoError(t, p.Subscribe(context.Background(), "k", sink))

	go func() {
		for i := 100; i < 200; i++ {
			p.Append("k", strconv.Itoa(i))
		}
	}()
	for i := 100; i < 200; i++ {
		want = append(want, strconv.Itoa(i))
	}

	assert.Equal(t, want, receive(t, sink, 200))
}

func TestPublisher_WithoutLiveForward(t *testing.T) {
	t.Parallel()

	p := newPublisher(t, replay.WithoutLiveForward())
	p.Append("k", "a")

	sink, err := p.Stream(context.Background(), "k")
	require.NoError(t, err)
	p.Append("k", "b")

	assert.Equal(t, []string{"a"}, receive(t, sink, 1))
	assertSilent(t, sink)

	late, err := p.Stream(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, receive(t, late, 2))
}

func TestPublisher_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("fixed deadline", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		p := newPublisher(t, replay.WithClock(mock), replay.WithTTL(30*time.Second))

		sink, err := p.Stream(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Len())

		mock.Add(29 * time.Second)
		p.Append("k", "last")
		assert.Equal(t, []string{"last"}, receive(t, sink, 1))

		mock.Add(time.Second)
		require.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, 5*time.Millisecond)
		assert.Nil(t, p.History("k"))

		select {
		case <-sink.Done():
		case <-time.After(time.Second):
			t.Fatal("sink not closed on eviction")
		}
		require.Eventually(t, func() bool { return p.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("write after eviction starts fresh", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		p := newPublisher(t, replay.WithClock(mock), replay.WithTTL(time.Minute))
		p.Append("k", "old")

		mock.Add(time.Minute)
		require.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, 5*time.Millisecond)

		p.Append("k", "new")
		assert.Equal(t, []string{"new"}, p.History("k"))

		sink, err := p.Stream(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, []string{"new"}, receive(t, sink, 1))
	})
}

func TestPublisher_MaxHistory(t *testing.T) {
	t.Parallel()

	p := newPublisher(t, replay.WithMaxHistory(3))
	for i := range 5 {
		p.Append("k", strconv.Itoa(i))
	}
	assert.Equal(t, []string{"2", "3", "4"}, p.History("k"))

	sink, err := p.Stream(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "4"}, receive(t, sink, 3))
}

func TestPublisher_SinkClosedByClient(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	sink, err := p.Stream(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, 1, p.Subscribers())

	require.NoError(t, sink.Close())
	require.Eventually(t, func() bool { return p.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	p.Append("k", "x")
	assert.Equal(t, []string{"x"}, p.History("k"))
}

func TestPublisher_Close(t *testing.T) {
	t.Parallel()

	p := replay.New[string, string](replay.WithClock(clock.NewMock()))
	blocked := relay.NewChanSink[string](0)
	require.NoError(t, p.Subscribe(context.Background(), "k", blocked))
	p.Append("k", "never read")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Zero(t, p.Len())
	assert.Zero(t, p.Subscribers())

	_, err := p.Stream(context.Background(), "k")
	require.ErrorIs(t, err, replay.ErrClosed)
	require.ErrorIs(t, p.Subscribe(context.Background(), "k", nil), relay.ErrNilSink)
}

func TestPublisher_CloseDuringSubscribe(t *testing.T) {
	t.Parallel()

	p := replay.New[string, string](replay.WithClock(clock.NewMock()))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		sinks []*relay.ChanSink[string]
	)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				key := strconv.Itoa(w*50 + i)
				p.Append(key, "x")
				sink := relay.NewChanSink[string](1)
				if err := p.Subscribe(context.Background(), key, sink); err != nil {
					assert.ErrorIs(t, err, replay.ErrClosed)
					continue
				}
				mu.Lock()
				sinks = append(sinks, sink)
				mu.Unlock()
			}
		}()
	}

	require.NoError(t, p.Close())
	wg.Wait()

	assert.Zero(t, p.Len())
	assert.Zero(t, p.Subscribers())
	for _, sink := range sinks {
		select {
		case <-sink.Done():
		default:
			t.Fatal("subscription outlived Close")
		}
	}
}

func TestPublisher_WithRelay(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	first, err := p.Stream(context.Background(), "7")
	require.NoError(t, err)

	r := relay.New[string, string](&onceConnector{
		l: relay.SliceListener(relay.Event[string, string]{Key: "7", Payload: `{"status":"done"}`}),
	}, p)

	second := relay.NewChanSink[string](1)
	require.NoError(t, r.AddSubscriber(context.Background(), "7", second))

	require.ErrorIs(t, r.Start(context.Background()), relay.ErrFatalExhaustion)
	assert.Equal(t, []string{`{"status":"done"}`}, receive(t, first, 1))
	assert.Equal(t, []string{`{"status":"done"}`}, receive(t, second, 1))
}

type onceConnector struct {
	l    relay.Listener[string, string]
	used bool
}

func (c *onceConnector) Connect(context.Context) (relay.Listener[string, string], error) {
	if c.used {
		return nil, relay.ErrNoUpstream
	}
	c.used = true
	return c.l, nil
}
