// Package api serves snapshots to the browser dashboard.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dicklesworthstone/resource_monitor/internal/auth"
	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// Collector produces one snapshot per call.
type Collector interface {
	Collect(ctx context.Context) (model.Snapshot, error)
}

// ContainerLister is the standalone container query behind /api/docker.
type ContainerLister interface {
	Containers(ctx context.Context) ([]model.Container, error)
}

// DefaultRequestTimeout bounds a single on-demand collection.
const DefaultRequestTimeout = 15 * time.Second

// Deps are the collaborators the router wires together. Containers, Hub and
// Metrics are optional.
type Deps struct {
	Collector      Collector
	Containers     ContainerLister
	Sessions       *auth.Sessions
	Hub            *Hub
	Metrics        http.Handler
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

type handler struct {
	deps Deps
}

// NewRouter builds the HTTP surface. Everything under /api except the auth
// endpoints requires a session.
func NewRouter(deps Deps) *mux.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = DefaultRequestTimeout
	}
	h := &handler{deps: deps}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/auth/login", deps.Sessions.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", deps.Sessions.Logout).Methods(http.MethodPost)

	gated := r.PathPrefix("/api").Subrouter()
	gated.Use(deps.Sessions.Require)
	gated.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)
	gated.HandleFunc("/docker", h.docker).Methods(http.MethodGet)
	if deps.Hub != nil {
		gated.HandleFunc("/metrics/stream", deps.Hub.ServeWS).Methods(http.MethodGet)
	}
	return r
}

func (h *handler) metrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.RequestTimeout)
	defer cancel()

	snap, err := h.deps.Collector.Collect(ctx)
	if err != nil {
		h.deps.Logger.Error("failed to fetch metrics", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch metrics"})
		return
	}
	noCache(w)
	writeJSON(w, http.StatusOK, snap)
}

// docker reports a partial listing as success; only an unavailable runtime is a 500.
func (h *handler) docker(w http.ResponseWriter, r *http.Request) {
	containers := []model.Container{}
	if h.deps.Containers != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.deps.RequestTimeout)
		defer cancel()

		list, err := h.deps.Containers.Containers(ctx)
		if err != nil && list == nil {
			h.deps.Logger.Error("failed to fetch docker containers", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch docker containers"})
			return
		}
		if err != nil {
			h.deps.Logger.Warn("docker containers partial", "error", err)
		}
		containers = list
	}
	noCache(w)
	writeJSON(w, http.StatusOK, containers)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			// websocket upgrades need the raw ResponseWriter (http.Hijacker)
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.deps.Logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
