package api

import (
	"time"

	"github.com/orchestrix/jobqueue/internal/store"
)

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// JobResponse is how a job is rendered back to callers.
type JobResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BulkJobError reports why one element of a bulk upload was rejected.
type BulkJobError struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

// BulkJobResponse is the body of POST /jobs/bulk.
type BulkJobResponse struct {
	Created int            `json:"created"`
	Errors  []BulkJobError `json:"errors"`
}

// ErrorResponse is the standard error envelope for 4xx/5xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by /health, /ready and /live.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func toJobResponse(rec store.JobRecord) JobResponse {
	return JobResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
