package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rtss/core/fanout"
	"github.com/dmitrymomot/rtss/core/metrics"
	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/core/replay"
	"github.com/dmitrymomot/rtss/internal/api"
	"github.com/dmitrymomot/rtss/internal/submission"
)

type stubSnapshots map[submission.ID]submission.Update

func (s stubSnapshots) GetByID(_ context.Context, id submission.ID) (submission.Update, error) {
	u, ok := s[id]
	if !ok {
		return submission.Update{}, submission.ErrNotFound
	}
	return u, nil
}

func newDirect(t *testing.T, opts ...api.Option) (*relay.Relay[submission.ID, submission.Update], *fanout.Publisher[submission.ID, submission.Update], *httptest.Server) {
	t.Helper()

	pub := fanout.New[submission.ID, submission.Update]()
	rel := relay.New[submission.ID, submission.Update](nil, pub)
	srv := httptest.NewServer(api.New(rel, opts...))
	t.Cleanup(func() {
		srv.Close()
		_ = pub.Close()
	})
	return rel, pub, srv
}

// openSSE starts a stream and returns a function yielding the next data
// payload.
func openSSE(t *testing.T, url string) func() submission.Update {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	return func() submission.Update {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var u submission.Update
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &u))
				return u
			}
		}
	}
}

func TestRoot(t *testing.T) {
	t.Parallel()

	_, _, srv := newDirect(t)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStream_InvalidID(t *testing.T) {
	t.Parallel()

	_, pub, srv := newDirect(t)
	for _, path := range []string{"/abc", "/99999999999", "/ws/abc"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
	assert.Equal(t, 0, pub.Len())
}

func TestUnknownRoutes(t *testing.T) {
	t.Parallel()

	_, _, srv := newDirect(t)

	resp, err := http.Get(srv.URL + "/a/b/c")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not_found")

	resp, err = http.Post(srv.URL+"/42", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Contains(t, string(body), "method_not_allowed")
}

func TestStream_DeliversUpdates(t *testing.T) {
	t.Parallel()

	rel, pub, srv := newDirect(t)
	next := openSSE(t, srv.URL+"/42")
	require.Eventually(t, func() bool { return pub.Has(42) }, time.Second, 5*time.Millisecond)

	ctx := context.Background()
	rel.Publish(ctx, relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42, Score: 10}})
	rel.Publish(ctx, relay.Event[submission.ID, submission.Update]{Key: 7, Payload: submission.Update{ID: 7, Score: 99}})
	rel.Publish(ctx, relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42, Score: 20, Status: "done"}})

	assert.Equal(t, int32(10), next().Score)
	last := next()
	assert.Equal(t, int32(20), last.Score)
	assert.Equal(t, "done", last.Status)
}

func TestStream_SnapshotFirst(t *testing.T) {
	t.Parallel()

	snaps := stubSnapshots{42: {ID: 42, Score: 5, Status: "judging"}}
	rel, pub, srv := newDirect(t, api.WithSnapshots(snaps))

	next := openSSE(t, srv.URL+"/42")
	require.Eventually(t, func() bool { return pub.Has(42) }, time.Second, 5*time.Millisecond)
	rel.Publish(context.Background(), relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42, Score: 10}})

	assert.Equal(t, "judging", next().Status)
	assert.Equal(t, int32(10), next().Score)
}

func TestStream_ClientLeavingDropsSubscription(t *testing.T) {
	t.Parallel()

	rel, pub, srv := newDirect(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return pub.Has(42) }, time.Second, 5*time.Millisecond)

	cancel()
	_ = resp.Body.Close()

	require.Eventually(t, func() bool {
		rel.Publish(context.Background(), relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42}})
		return !pub.Has(42)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStream_ReplayLateJoiner(t *testing.T) {
	t.Parallel()

	pub := replay.New[submission.ID, submission.Update]()
	rel := relay.New[submission.ID, submission.Update](nil, pub)
	srv := httptest.NewServer(api.New(rel))
	t.Cleanup(func() {
		srv.Close()
		_ = pub.Close()
	})

	ctx := context.Background()
	rel.Publish(ctx, relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42, Score: 10}})
	rel.Publish(ctx, relay.Event[submission.ID, submission.Update]{Key: 42, Payload: submission.Update{ID: 42, Score: 20}})

	next := openSSE(t, srv.URL+"/42")
	assert.Equal(t, int32(10), next().Score)
	assert.Equal(t, int32(20), next().Score)
}

func TestWebSocket(t *testing.T) {
	t.Parallel()

	rel, pub, srv := newDirect(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/7", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return pub.Has(7) }, time.Second, 5*time.Millisecond)

	rel.Publish(context.Background(), relay.Event[submission.ID, submission.Update]{Key: 7, Payload: submission.Update{ID: 7, Status: "done"}})

	var got submission.Update
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, submission.ID(7), got.ID)
	assert.Equal(t, "done", got.Status)
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	t.Parallel()

	_, pub, srv := newDirect(t)
	resp, err := http.Get(srv.URL + "/ws/7")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, pub.Has(7))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	failing := func(context.Context) error { return errors.New("pipeline inactive") }
	_, _, srv := newDirect(t, api.WithReadinessChecks(failing))

	resp, err := http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ALIVE", string(body))

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(metrics.DefaultNamespace)
	pub := fanout.New[submission.ID, submission.Update](fanout.WithMetrics(m))
	rel := relay.New[submission.ID, submission.Update](nil, pub, relay.WithMetrics(m))
	srv := httptest.NewServer(api.New(rel, api.WithMetrics(m.Handler())))
	defer srv.Close()

	rel.Publish(context.Background(), relay.Event[submission.ID, submission.Update]{Key: 1, Payload: submission.Update{ID: 1}})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rtss_")
}
