package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/fpldash/cache"
	"github.com/briangreenhill/fpldash/internal/feeds"
	"github.com/briangreenhill/fpldash/internal/jobs"
	"github.com/briangreenhill/fpldash/pkg/fetch"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

const bootstrap = `{
	"events": [{"id": 1, "name": "Gameweek 1", "deadline_time": "2030-08-15T17:30:00Z", "is_next": true}],
	"teams": [{"id": 1, "name": "Arsenal", "short_name": "ARS"}],
	"elements": []
}`

type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T, status int, routes map[string]string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

type recordingQueue struct {
	tasks []*asynq.Task
}

func (q *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + string(rune('a'+len(q.tasks)-1))}, nil
}

func newServer(t *testing.T, u *upstream, q jobs.Enqueuer) *Server {
	t.Helper()
	mc, err := cache.NewMemoryCache(16)
	require.NoError(t, err)
	fc := fpl.NewClient(
		fetch.New(fetch.WithBaseURL(u.URL+"/api/"), fetch.WithCache(mc)),
		fpl.Routes{Primary: fetch.Direct(), Fallback: fetch.None()},
		nil,
	)
	return New(ServerOptions{
		FPL:    fc,
		Feeds:  feeds.Setup(feeds.Deps{FPL: fc, Log: zerolog.Nop()}),
		Queue:  q,
		Logger: zerolog.Nop(),
	})
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newServer(t, newUpstream(t, http.StatusOK, nil), nil)
	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestFPLProxyCaches(t *testing.T) {
	u := newUpstream(t, http.StatusOK, map[string]string{
		"/api/bootstrap-static/": bootstrap,
		"/api/fixtures/?event=1": `[]`,
	})
	s := newServer(t, u, nil)

	rec := do(t, s, http.MethodGet, "/api/fpl/bootstrap-static/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, bootstrap, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/fpl/bootstrap-static/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), u.hits.Load())

	rec = do(t, s, http.MethodGet, "/api/fpl/fixtures/?event=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestFPLProxyRejectsUnknownResources(t *testing.T) {
	u := newUpstream(t, http.StatusOK, nil)
	s := newServer(t, u, nil)

	for _, path := range []string{
		"/api/fpl/me/",
		"/api/fpl/",
		"/api/fpl/entry/../me/",
		"/api/fpl/entry/%2e%2e/%2e%2e/admin/",
		"/api/fpl/entry/1%2f..%2f..%2fadmin/",
	} {
		rec := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Zero(t, u.hits.Load())
}

func TestFPLProxyErrors(t *testing.T) {
	s := newServer(t, newUpstream(t, http.StatusServiceUnavailable, nil), nil)
	rec := do(t, s, http.MethodGet, "/api/fpl/bootstrap-static/", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "temporarily unavailable")

	s = newServer(t, newUpstream(t, http.StatusOK, map[string]string{"/api/bootstrap-static/": `{"events": []}`}), nil)
	rec = do(t, s, http.MethodGet, "/api/fpl/bootstrap-static/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "proxy checks the same shape as the typed client")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "changed its format")

	s = newServer(t, newUpstream(t, http.StatusOK, map[string]string{"/api/event/1/live/": `<html>`}), nil)
	rec = do(t, s, http.MethodGet, "/api/fpl/event/1/live/", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestFeeds(t *testing.T) {
	s := newServer(t, newUpstream(t, http.StatusOK, map[string]string{"/api/bootstrap-static/": bootstrap}), nil)

	rec := do(t, s, http.MethodGet, "/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deadline"`)

	rec = do(t, s, http.MethodGet, "/feeds/deadline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Gameweek 1 deadline")

	rec = do(t, s, http.MethodGet, "/feeds/deadline/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/feeds/deadline/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/feeds/prices/3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/feeds/weather", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedsDegradeWithOK(t *testing.T) {
	s := newServer(t, newUpstream(t, http.StatusBadGateway, nil), nil)
	rec := do(t, s, http.MethodGet, "/feeds/deadline", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
}

func TestWarm(t *testing.T) {
	u := newUpstream(t, http.StatusOK, nil)

	rec := do(t, newServer(t, u, nil), http.MethodPost, "/api/warm", []byte(`{"resources": ["fixtures/"]}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	q := &recordingQueue{}
	s := newServer(t, u, q)

	rec = do(t, s, http.MethodPost, "/api/warm", []byte(`{"resources": ["fixtures/", "event/3/live/"], "ttl_ms": 30000, "mode": "network-first"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"task_ids": ["task-a", "task-b"]}`, rec.Body.String())
	require.Len(t, q.tasks, 2)
	assert.Equal(t, jobs.TaskWarm, q.tasks[1].Type())
	assert.JSONEq(t, `{"resource": "event/3/live/", "ttl_ms": 30000, "mode": "network-first"}`, string(q.tasks[1].Payload()))

	for _, body := range []string{
		`{}`,
		`not json`,
		`{"resources": ["fixtures/"], "extra": 1}`,
		`{"resources": ["me/"]}`,
		`{"resources": ["fixtures/"], "mode": "sometimes"}`,
		`{"resources": ["fixtures/"], "ttl_ms": -5}`,
	} {
		rec = do(t, s, http.MethodPost, "/api/warm", []byte(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Len(t, q.tasks, 2)
}
