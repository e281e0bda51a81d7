// Package store implements the durable job queue: the Job Store and the
// claim protocol that lets many workers compete for rows without
// double-delivery.
package store

import "time"

// Status is the lifecycle state of a job. Terminal states are absorbing.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition out of s is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// IsValid reports whether s is one of the four recognized statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// JobRecord is the persisted representation of a job, as returned by the
// store. Name is 3-10 characters; validated by the ingress adapter before
// Insert is called, not by the store itself.
type JobRecord struct {
	ID        int64
	Name      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJob is the set of fields a caller supplies to Insert/BulkInsert.
// Status is always StatusNew at creation; it is not settable here.
type NewJob struct {
	Name string
}
