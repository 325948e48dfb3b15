package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harsh-khajruia/thread-manager/internal/pool"
)

func newTestServer(t *testing.T, workers int, limiter *rate.Limiter) (*httptest.Server, *pool.Manager) {
	t.Helper()

	mgr, err := pool.New(pool.Options{MaxWorkers: workers, Logger: zap.NewNop()})
	require.NoError(t, err)

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	router := NewRouter(mgr, limiter, zap.NewNop(), VersionInfo{Version: "test"})
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		mgr.Shutdown(true)
	})
	return srv, mgr
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, 2, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	decodeJSON(t, resp, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Build.Version)
	require.Equal(t, 2, health.Pool.MaxWorkers)
	require.False(t, health.Pool.ShuttingDown)
}

func TestSubmitAndPollTask(t *testing.T) {
	srv, mgr := newTestServer(t, 2, nil)

	body, err := json.Marshal(SubmitRequest{Duration: "40ms", Steps: 2})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitted SubmitResponse
	decodeJSON(t, resp, &submitted)
	require.NotEmpty(t, submitted.TaskID)

	require.NoError(t, mgr.Wait(submitted.TaskID, 2*time.Second))

	resp, err = http.Get(srv.URL + "/threads/" + submitted.TaskID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info pool.TaskInfo
	decodeJSON(t, resp, &info)
	require.Equal(t, submitted.TaskID, info.ID)
	require.Equal(t, pool.StateTerminated, info.State)
	require.Equal(t, 100, info.Progress)
}

func TestSubmitFailingTask(t *testing.T) {
	srv, mgr := newTestServer(t, 1, nil)

	body, err := json.Marshal(SubmitRequest{Duration: "20ms", Steps: 1, Fail: true})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitted SubmitResponse
	decodeJSON(t, resp, &submitted)
	require.NoError(t, mgr.Wait(submitted.TaskID, 2*time.Second))

	info, err := mgr.Task(submitted.TaskID)
	require.NoError(t, err)
	require.Equal(t, pool.StateError, info.State)
	require.NotEmpty(t, info.Error)
}

func TestSubmitInvalidDuration(t *testing.T) {
	srv, _ := newTestServer(t, 1, nil)

	body := []byte(`{"duration":"not-a-duration"}`)
	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestThreadNotFound(t *testing.T) {
	srv, _ := newTestServer(t, 1, nil)

	resp, err := http.Get(srv.URL + "/threads/unknown-id")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var msg MessageResponse
	decodeJSON(t, resp, &msg)
	require.Equal(t, http.StatusNotFound, msg.Status)
}

func TestActiveAndAllThreads(t *testing.T) {
	srv, mgr := newTestServer(t, 2, nil)

	resp, err := http.Get(srv.URL + "/threads")
	require.NoError(t, err)
	var active ThreadsResponse
	decodeJSON(t, resp, &active)
	require.Zero(t, active.Count)

	id, err := mgr.Submit(func(ctx context.Context, report pool.ProgressFunc) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Wait(id, 2*time.Second))

	resp, err = http.Get(srv.URL + "/threads/all")
	require.NoError(t, err)
	var all ThreadsResponse
	decodeJSON(t, resp, &all)
	require.Equal(t, 1, all.Count)
	require.Equal(t, id, all.Threads[0].ID)
}

func TestSlotsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 3, nil)

	resp, err := http.Get(srv.URL + "/slots")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var slots SlotsResponse
	decodeJSON(t, resp, &slots)
	require.Equal(t, 3, slots.Count)
	for _, s := range slots.Slots {
		require.False(t, s.Busy)
	}
}

func TestShutdownEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 1, nil)

	resp, err := http.Post(srv.URL+"/shutdown?wait=true", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Submissions after shutdown are refused.
	resp, err = http.Post(srv.URL+"/tasks", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitRateLimited(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	srv, _ := newTestServer(t, 1, limiter)

	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader([]byte(`{"duration":"10ms","steps":1}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/tasks", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, 1, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
