package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harsh-khajruia/thread-manager/internal/pool"
)

const (
	defaultSampleDuration = 2 * time.Second
	defaultSampleSteps    = 10
)

type Handler struct {
	pool    *pool.Manager
	limiter *rate.Limiter
	logger  *zap.Logger
	version VersionInfo
}

func NewHandler(mgr *pool.Manager, limiter *rate.Limiter, logger *zap.Logger, version VersionInfo) *Handler {
	return &Handler{
		pool:    mgr,
		limiter: limiter,
		logger:  logger,
		version: version,
	}
}

// handleActiveThreads serves the pull-based snapshot the visualization
// front-end polls on its own timer.
func (h *Handler) handleActiveThreads(w http.ResponseWriter, r *http.Request) {
	threads := h.pool.ActiveTasks()
	writeJSON(w, ThreadsResponse{Count: len(threads), Threads: threads})
}

func (h *Handler) handleAllThreads(w http.ResponseWriter, r *http.Request) {
	threads := h.pool.Tasks()
	writeJSON(w, ThreadsResponse{Count: len(threads), Threads: threads})
}

func (h *Handler) handleThreadInfo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	info, err := h.pool.Task(id)
	if err != nil {
		h.logger.Warn("thread lookup failed", zap.String("task_id", id), zap.Error(err))
		writeError(w, "Thread not found", http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

func (h *Handler) handleSlots(w http.ResponseWriter, r *http.Request) {
	slots := h.pool.Slots()
	writeJSON(w, SlotsResponse{Count: len(slots), Slots: slots})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status: "ok",
		Build: BuildInfo{
			Version:   h.version.Version,
			Commit:    h.version.Commit,
			Date:      h.version.Date,
			GoVersion: h.version.GoVersion,
			Platform:  h.version.Platform,
		},
		Pool: poolStatus(h.pool.Stats()),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		h.logger.Warn("submission rate limited", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, "Too many submissions", http.StatusTooManyRequests)
		return
	}

	req := SubmitRequest{Steps: defaultSampleSteps}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("invalid submit request", zap.Error(err))
			writeError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	duration := defaultSampleDuration
	if req.Duration != "" {
		parsed, err := time.ParseDuration(req.Duration)
		if err != nil || parsed <= 0 {
			writeError(w, "Invalid duration", http.StatusBadRequest)
			return
		}
		duration = parsed
	}
	if req.Steps < 1 {
		req.Steps = defaultSampleSteps
	}

	id, err := h.pool.Submit(sampleTask(duration, req.Steps, req.Fail))
	if err != nil {
		if errors.Is(err, pool.ErrShutdown) {
			writeError(w, "Pool is shut down", http.StatusConflict)
			return
		}
		h.logger.Error("failed to submit task", zap.Error(err))
		writeError(w, "Failed to submit task", http.StatusInternalServerError)
		return
	}

	h.logger.Info("task submitted",
		zap.String("task_id", id),
		zap.Duration("duration", duration),
		zap.Bool("fail", req.Fail))
	writeJSON(w, SubmitResponse{TaskID: id})
}

func (h *Handler) handleShutdown(w http.ResponseWriter, r *http.Request) {
	wait := r.URL.Query().Get("wait") == "true"
	h.logger.Info("shutdown requested", zap.Bool("wait", wait))
	h.pool.Shutdown(wait)
	writeJSON(w, MessageResponse{Status: http.StatusOK, Message: "Pool shut down"})
}

// sampleTask builds the demo workload: sleep in steps, reporting progress,
// optionally failing at the end. It exits early when the pool's context is
// cancelled by a non-draining shutdown.
func sampleTask(duration time.Duration, steps int, fail bool) pool.TaskFunc {
	return func(ctx context.Context, report pool.ProgressFunc) (any, error) {
		step := duration / time.Duration(steps)
		for i := 1; i <= steps; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(step):
			}
			report(i * 100 / steps)
		}
		if fail {
			return nil, errors.New("sample task asked to fail")
		}
		return "done", nil
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(MessageResponse{
		Status:  code,
		Message: message,
	}); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
