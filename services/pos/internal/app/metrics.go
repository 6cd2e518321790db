package app

import (
	"context"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes the service registry in the Prometheus text format
// and a readiness probe backed by the document store.
type MetricsHandler struct {
	handler http.Handler
	store   Pinger
}

func NewMetricsHandler(gatherer prometheus.Gatherer, store Pinger) *MetricsHandler {
	return &MetricsHandler{
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		store:   store,
	}
}

func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodGet, "/metrics", h.handler)
	r.Get("/readyz", h.Ready)
}

func (h *MetricsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			apt.RespondError(w, http.StatusServiceUnavailable, "Document store unavailable")
			return
		}
	}
	apt.RespondSuccess(w, map[string]string{"status": "ready"})
}
