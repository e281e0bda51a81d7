// Package executor runs the placeholder workload for a claimed job and
// writes its terminal status. The workload itself sits behind WorkFunc
// so real job logic can replace the simulation without touching the
// worker loop or the store.
package executor

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/orchestrix/jobqueue/internal/metrics"
	"github.com/orchestrix/jobqueue/internal/store"
)

// WorkFunc performs the actual work for a claimed job and reports its
// outcome. It must not mutate job's persisted status itself — Run does
// that once WorkFunc returns.
type WorkFunc func(ctx context.Context, job store.JobRecord) (store.Status, error)

// DefaultWork is the placeholder workload from spec §4.3: sleep a
// uniformly random duration in [1s, 5s], then succeed with probability
// ~77%. It returns an error only when ctx is done before the delay
// elapses (reporting StatusFailed); otherwise the random draw is the
// simulated failure and the error is nil.
func DefaultWork(ctx context.Context, job store.JobRecord) (store.Status, error) {
	delay := time.Duration(1+rand.Intn(5)) * time.Second

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return store.StatusFailed, ctx.Err()
	}

	if rand.Intn(100) < 77 {
		return store.StatusSuccess, nil
	}
	return store.StatusFailed, nil
}

// Run executes work for job and writes the terminal status. It never
// retries on a SetStatus failure — it logs and returns. Run is meant to
// be called from a detached goroutine that owns a concurrency permit
// for its lifetime; the caller releases that permit once Run returns.
func Run(ctx context.Context, s store.Store, job store.JobRecord, work WorkFunc, m *metrics.Metrics) {
	start := time.Now()
	terminal, err := work(ctx, job)
	duration := time.Since(start)

	if m != nil {
		m.JobDuration.Observe(duration.Seconds())
	}

	if err != nil {
		log.Printf("executor: job %d errored after %v: %v", job.ID, duration, err)
	}

	if setErr := s.SetStatus(ctx, job.ID, terminal); setErr != nil {
		log.Printf("executor: job %d: failed to write terminal status %s: %v", job.ID, terminal, setErr)
		return
	}

	if m != nil {
		switch terminal {
		case store.StatusSuccess:
			m.JobsSucceeded.Inc()
		case store.StatusFailed:
			m.JobsFailed.Inc()
		}
	}

	log.Printf("executor: job %d finished in %v with status %s", job.ID, duration, terminal)
}
