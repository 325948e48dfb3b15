package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harsh-khajruia/thread-manager/internal/logger"
	"github.com/harsh-khajruia/thread-manager/internal/pool"
)

func NewRouter(mgr *pool.Manager, limiter *rate.Limiter, log *zap.Logger, version VersionInfo) *mux.Router {
	r := mux.NewRouter()
	h := NewHandler(mgr, limiter, log, version)

	r.Use(corsMiddleware, loggingMiddleware)

	r.HandleFunc("/threads", h.handleActiveThreads).Methods(http.MethodGet)
	r.HandleFunc("/threads/all", h.handleAllThreads).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", h.handleThreadInfo).Methods(http.MethodGet)
	r.HandleFunc("/slots", h.handleSlots).Methods(http.MethodGet)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/shutdown", h.handleShutdown).Methods(http.MethodPost)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("request received",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}
