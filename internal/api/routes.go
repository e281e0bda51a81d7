package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the service's HTTP handler: job ingress, health
// probes and the Prometheus exposition endpoint.
func NewRouter(h *Handler, maxPayloadBytes int64) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /jobs", h.CreateJob)
	mux.HandleFunc("POST /jobs/bulk", func(w http.ResponseWriter, r *http.Request) {
		h.CreateJobsBulk(w, r, maxPayloadBytes)
	})
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /live", h.Live)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
