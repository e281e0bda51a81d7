// Package shutdown implements the ordering guarantees by which ingress,
// the worker pool, and the database pool are quiesced on signal.
package shutdown

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkerPool is the subset of worker.Pool the coordinator needs. Kept
// as a narrow interface so this package does not import worker.
type WorkerPool interface {
	Stop()
}

// Coordinator owns the HTTP server, the worker pool, and the database
// pool, and quiesces them in the fixed order spec §4.5 requires:
// ingress, then workers, then the database.
type Coordinator struct {
	Server     *http.Server
	Workers    WorkerPool
	DB         *pgxpool.Pool
	GraceDelay time.Duration // timeout budget for server.Shutdown
}

// Run blocks until ctx is cancelled (by the caller's signal handling),
// then performs the shutdown sequence. It does not itself listen for
// OS signals — that is main's job, via signal.NotifyContext or
// equivalent — so this package stays testable without touching the
// process's signal state.
func (c *Coordinator) Run(ctx context.Context) {
	<-ctx.Done()
	log.Println("shutdown: signal received, draining")
	c.Shutdown()
}

// Shutdown performs the teardown sequence synchronously. Exported
// separately from Run so tests and callers that already have their own
// signal-waiting loop can invoke it directly.
func (c *Coordinator) Shutdown() {
	grace := c.GraceDelay
	if grace <= 0 {
		grace = 30 * time.Second
	}

	// 1. Stop the HTTP ingress: no new connections, drain in-flight
	// requests to completion.
	log.Println("shutdown: stopping HTTP ingress")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: HTTP server shutdown error: %v", err)
	}

	// 2 & 3. Flip the shutdown flag (inside Workers.Stop) and await
	// every worker loop. In-flight Executor tasks are detached and not
	// explicitly awaited (spec §9, open question 2).
	log.Println("shutdown: stopping worker pool")
	c.Workers.Stop()

	// 5. Close the database pool last, once no worker loop can still be
	// mid-transaction.
	log.Println("shutdown: closing database pool")
	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("shutdown: complete")
}
