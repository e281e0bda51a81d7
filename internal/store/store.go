package store

import "context"

// Store is the contract the queue core depends on. PostgresStore is the
// only production implementation; the interface exists so worker and
// executor tests can swap in a fake without a live database.
type Store interface {
	// Insert persists one job in status new and returns the full record,
	// including the server-assigned id and timestamps.
	Insert(ctx context.Context, job NewJob) (JobRecord, error)

	// BulkInsert persists all of jobs in a single statement. Either all
	// rows land or none do. An empty slice returns (0, nil) without
	// touching the database.
	BulkInsert(ctx context.Context, jobs []NewJob) (int, error)

	// ClaimNext runs the claim protocol: it selects the oldest claimable
	// new row under a skip-locked exclusive lock, promotes it to
	// processing, and returns it. ok is false when no claimable row
	// exists; that is not an error.
	ClaimNext(ctx context.Context) (job JobRecord, ok bool, err error)

	// SetStatus writes a terminal status and bumps updated_at. terminal
	// must be StatusSuccess or StatusFailed.
	SetStatus(ctx context.Context, id int64, terminal Status) error
}
