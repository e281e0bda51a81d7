// Package api is the HTTP ingress adapter: it validates incoming job
// submissions and hands them to the store, and exposes the health,
// readiness, liveness and metrics endpoints operators probe.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/orchestrix/jobqueue/internal/metrics"
	"github.com/orchestrix/jobqueue/internal/store"
)

const (
	minNameLen = 3
	maxNameLen = 10
)

// Handler holds the dependencies every route needs.
type Handler struct {
	store   store.Store
	metrics *metrics.Metrics
	db      DBPinger
}

// DBPinger is the subset of *pgxpool.Pool the health checks need. Kept
// narrow so this package doesn't have to import pgx directly.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// NewHandler wires a Handler against a store, a metrics registry and
// whatever satisfies DBPinger for health probes.
func NewHandler(s store.Store, m *metrics.Metrics, db DBPinger) *Handler {
	return &Handler{store: s, metrics: m, db: db}
}

// CreateJob handles POST /jobs: a single job submission as a JSON body.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	const route = "/jobs"

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := validateName(req.Name); len(errs) > 0 {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	if req.Status != "" && req.Status != string(store.StatusNew) {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "status must be \"new\" on creation")
		return
	}

	rec, err := h.store.Insert(r.Context(), store.NewJob{Name: req.Name})
	if err != nil {
		log.Printf("api: create job failed: %v", err)
		h.count("POST", route, http.StatusInternalServerError)
		respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.metrics.JobsCreated.Inc()
	h.metrics.QueueDepth.Inc()
	h.count("POST", route, http.StatusCreated)
	respondJSON(w, http.StatusCreated, toJobResponse(rec))
}

// CreateJobsBulk handles POST /jobs/bulk: a multipart upload whose file
// part is a JSON array of job submissions. Either every well-formed
// element is inserted, or none are — validation failures are reported
// per element without aborting the rest of the batch.
func (h *Handler) CreateJobsBulk(w http.ResponseWriter, r *http.Request, maxPayloadBytes int64) {
	const route = "/jobs/bulk"

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	if err := r.ParseMultipartForm(maxPayloadBytes); err != nil {
		h.count("POST", route, http.StatusRequestEntityTooLarge)
		respondError(w, http.StatusRequestEntityTooLarge, "payload exceeds maximum size")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "missing \"file\" form field")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	var submissions []CreateJobRequest
	if err := json.Unmarshal(body, &submissions); err != nil {
		h.count("POST", route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "uploaded file is not a JSON array of jobs")
		return
	}

	var (
		valid    []store.NewJob
		rejected []BulkJobError
	)
	for _, s := range submissions {
		var errs []string
		errs = append(errs, validateName(s.Name)...)
		if s.Status != "" && s.Status != string(store.StatusNew) {
			errs = append(errs, "status must be \"new\" on creation")
		}
		if len(errs) > 0 {
			rejected = append(rejected, BulkJobError{Name: s.Name, Errors: errs})
			continue
		}
		valid = append(valid, store.NewJob{Name: s.Name})
	}

	created, err := h.store.BulkInsert(r.Context(), valid)
	if err != nil {
		log.Printf("api: bulk insert failed: %v", err)
		h.count("POST", route, http.StatusInternalServerError)
		respondError(w, http.StatusInternalServerError, "failed to store jobs")
		return
	}

	h.metrics.JobsCreated.Add(float64(created))
	h.metrics.QueueDepth.Add(float64(created))
	h.count("POST", route, http.StatusOK)
	respondJSON(w, http.StatusOK, BulkJobResponse{Created: created, Errors: rejected})
}

// Health handles GET /health by probing the database; Ready serves
// GET /ready with the same probe. Distinct routes exist so operators can point a load balancer's
// readiness check and an alerting system's health check at different
// grace periods without changing the underlying probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.probeDatabase(w, r, "/health")
}

// Ready handles GET /ready; identical semantics to Health.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	h.probeDatabase(w, r, "/ready")
}

func (h *Handler) probeDatabase(w http.ResponseWriter, r *http.Request, route string) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.count("GET", route, http.StatusServiceUnavailable)
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Database:  "unreachable",
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	h.count("GET", route, http.StatusOK)
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Database:  "reachable",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Live handles GET /live: unconditional 200, signalling only that the
// process is scheduled and answering requests, not that its
// dependencies are healthy.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.count("GET", "/live", http.StatusOK)
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) count(method, route string, status int) {
	h.metrics.HTTPRequests.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
}

func validateName(name string) []string {
	var errs []string
	if len(name) < minNameLen || len(name) > maxNameLen {
		errs = append(errs, fmt.Sprintf("name must be between %d and %d characters", minNameLen, maxNameLen))
	}
	return errs
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
