// Package httpfacade is a thin HTTP surface over a subsystem: health,
// status and metrics endpoints only. It never reaches into a subsystem's
// internals — every handler below is expressed purely in terms of the
// public API a BaseSubsystem already exposes.
package httpfacade

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lesfleursdelanuitdev/subsystem-core/core"
	"github.com/lesfleursdelanuitdev/subsystem-core/logging"
)

// schedulerStatus is the subset of the Scheduler facet's surface the status
// endpoint needs. Defined locally (rather than imported) so this package
// depends only on method shapes, not on core's unexported facet wiring.
type schedulerStatus interface {
	IsPaused() bool
	IsProcessing() bool
}

// queueStatus is the subset of the Queue facet's surface the status
// endpoint needs.
type queueStatus interface {
	Size() int
}

// Facade wraps a *core.BaseSubsystem with health/status/metrics endpoints.
// It is additive: nothing it does can alter the wrapped subsystem's state.
type Facade struct {
	sub      *core.BaseSubsystem
	registry *prometheus.Registry
	log      *logging.Logger
}

// Options configures a Facade.
type Options struct {
	// Registry, when non-nil, is served at GET /metrics via promhttp. When
	// nil, /metrics responds 404 — a subsystem with no Statistics facet
	// registered need not pay for a Prometheus handler.
	Registry *prometheus.Registry
	Logger   *logging.Logger
}

// New constructs a Facade over sub.
func New(sub *core.BaseSubsystem, opts Options) *Facade {
	log := opts.Logger
	if log == nil {
		log = logging.New("httpfacade", logging.DefaultConfig())
	}
	return &Facade{sub: sub, registry: opts.Registry, log: log}
}

// Router builds the gorilla/mux router serving this facade's endpoints,
// wrapped with a logging middleware and a panic-recovery middleware.
func (f *Facade) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(f.loggingMiddleware)
	r.Use(f.recoveryMiddleware)

	r.HandleFunc("/healthz", f.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", f.handleStatus).Methods(http.MethodGet)
	if f.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

func (f *Facade) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		f.log.Component().WithFields(map[string]any{
			"method":   req.Method,
			"path":     req.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("httpfacade request")
	})
}

func (f *Facade) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				f.log.Component().WithFields(map[string]any{
					"panic": fmt.Sprintf("%v", rec),
					"stack": string(debug.Stack()),
				}).Error("httpfacade panic recovered")
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// handleHealthz reports only process liveness — it never touches sub, so it
// answers even before build() has run.
func (f *Facade) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleStatus reports {built, paused, processing, queueSize}, each field
// omitted when the corresponding facet isn't installed.
func (f *Facade) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"built": f.sub.IsBuilt()}

	if sch, ok := f.sub.API().Facets.Find("scheduler"); ok {
		if s, ok := sch.(schedulerStatus); ok {
			body["paused"] = s.IsPaused()
			body["processing"] = s.IsProcessing()
		}
	}
	if q, ok := f.sub.API().Facets.Find("queue"); ok {
		if qs, ok := q.(queueStatus); ok {
			body["queueSize"] = qs.Size()
		}
	}

	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
