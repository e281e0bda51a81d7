package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL, with FOR UPDATE SKIP
// LOCKED as the coordination primitive for ClaimNext.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed job store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert persists one job in status new.
func (s *PostgresStore) Insert(ctx context.Context, job NewJob) (JobRecord, error) {
	const query = `
		INSERT INTO jobs (name, status)
		VALUES ($1, $2)
		RETURNING id, name, status, created_at, updated_at
	`

	var rec JobRecord
	err := s.pool.QueryRow(ctx, query, job.Name, StatusNew).Scan(
		&rec.ID, &rec.Name, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return JobRecord{}, classify("Insert", err)
	}
	return rec, nil
}

// BulkInsert persists all jobs in a single statement. Empty input is a
// no-op that never touches the database.
func (s *PostgresStore) BulkInsert(ctx context.Context, jobs []NewJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO jobs (name, status) VALUES ")

	args := make([]interface{}, 0, len(jobs)*2)
	for i, job := range jobs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, job.Name, StatusNew)
	}

	tag, err := s.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, classify("BulkInsert", err)
	}
	return int(tag.RowsAffected()), nil
}

// ClaimNext implements the claim protocol: select the oldest claimable
// new row under SKIP LOCKED, promote it to processing, commit. Returns
// ok=false when no claimable row exists.
func (s *PostgresStore) ClaimNext(ctx context.Context) (JobRecord, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return JobRecord{}, false, classify("ClaimNext", err)
	}
	defer tx.Rollback(ctx)

	const selectQuery = `
		SELECT id, name, status, created_at, updated_at
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var rec JobRecord
	err = tx.QueryRow(ctx, selectQuery, StatusNew).Scan(
		&rec.ID, &rec.Name, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRecord{}, false, nil
	}
	if err != nil {
		return JobRecord{}, false, classify("ClaimNext", err)
	}

	const updateQuery = `
		UPDATE jobs
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	now := time.Now()
	if _, err := tx.Exec(ctx, updateQuery, StatusProcessing, now, rec.ID); err != nil {
		return JobRecord{}, false, classify("ClaimNext", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return JobRecord{}, false, classify("ClaimNext", err)
	}

	rec.Status = StatusProcessing
	rec.UpdatedAt = now
	return rec, true, nil
}

// SetStatus writes a terminal status. Deliberately unguarded by a
// WHERE status='processing' predicate (spec open question #3): a row
// not currently in processing is still updated.
func (s *PostgresStore) SetStatus(ctx context.Context, id int64, terminal Status) error {
	const query = `
		UPDATE jobs
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := s.pool.Exec(ctx, query, terminal, time.Now(), id)
	if err != nil {
		return classify("SetStatus", err)
	}
	return nil
}

// CountByStatus reports how many rows currently have the given status.
// Used both by tests and by the queue-depth gauge.
func (s *PostgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM jobs WHERE status = $1", status).Scan(&n)
	if err != nil {
		return 0, classify("CountByStatus", err)
	}
	return n, nil
}

// StatusOf returns the current status of a single row, for diagnostics
// and tests; it is not part of the core claim/finalize path.
func (s *PostgresStore) StatusOf(ctx context.Context, id int64) (Status, error) {
	var status Status
	err := s.pool.QueryRow(ctx, "SELECT status FROM jobs WHERE id = $1", id).Scan(&status)
	if err != nil {
		return "", classify("StatusOf", err)
	}
	return status, nil
}

// classify maps a pgx/driver error onto the store's three-way error
// taxonomy so callers can branch on behaviour, not on message text.
func classify(op string, err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"): // integrity constraint violation
			return newError(KindConstraint, op, err)
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return newError(KindTransient, op, err)
		default:
			return newError(KindFatal, op, err)
		}
	}
	return newError(KindTransient, op, err)
}
