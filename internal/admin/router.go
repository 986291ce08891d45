// File: internal/admin/router.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package admin serves the HTTP admin endpoint: health probes, Prometheus
// metrics and a JSON dump of runtime state.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentics/hioload-ftpd/internal/logger"
)

// StateProvider supplies the runtime state shown at /debug/state.
type StateProvider interface {
	Stats() map[string]any
}

// Response is the JSON envelope of every non-metrics endpoint.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewRouter creates the chi router.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus exposition for gatherer
//   - GET /debug/state - Published loop state and debug probes
func NewRouter(state StateProvider, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "hioload-ftpd"})
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/debug/state", func(w http.ResponseWriter, r *http.Request) {
		if state == nil {
			writeError(w, http.StatusServiceUnavailable, "state not available")
			return
		}
		writeJSON(w, http.StatusOK, state.Stats())
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     msg,
	})
}

// requestLogger logs every admin request at DEBUG with its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("Admin request completed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
