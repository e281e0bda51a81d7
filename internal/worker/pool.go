// Package worker implements the bounded worker pool: num_workers
// independent acquisition loops feeding one shared concurrency permit
// pool, decoupling claim parallelism from execution parallelism.
package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orchestrix/jobqueue/internal/executor"
	"github.com/orchestrix/jobqueue/internal/metrics"
	"github.com/orchestrix/jobqueue/internal/store"
)

const (
	defaultIdleInterval  = 5 * time.Second
	defaultErrorInterval = 1 * time.Second
)

// Config configures a Pool.
type Config struct {
	NumWorkers        int
	MaxConcurrentJobs int
	// IdleInterval is how long a loop sleeps after finding no claimable
	// job. Zero uses the spec default of 5s.
	IdleInterval time.Duration
	// ErrorInterval is how long a loop sleeps after a failed claim,
	// whatever the store error's Kind. Zero uses the spec default of 1s.
	ErrorInterval time.Duration
	// Work is the per-job workload. Nil uses executor.DefaultWork.
	Work executor.WorkFunc
}

// Pool is the bounded worker pool described in spec §4.4: num_workers
// acquisition loops sharing one permit pool of capacity
// max_concurrent_jobs.
type Pool struct {
	cfg     Config
	store   store.Store
	metrics *metrics.Metrics
	permits *PermitPool

	shutdown atomic.Bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a worker pool. Start must be called to begin claiming.
func New(s store.Store, m *metrics.Metrics, cfg Config) *Pool {
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = defaultIdleInterval
	}
	if cfg.ErrorInterval <= 0 {
		cfg.ErrorInterval = defaultErrorInterval
	}
	if cfg.Work == nil {
		cfg.Work = executor.DefaultWork
	}

	return &Pool{
		cfg:     cfg,
		store:   s,
		metrics: m,
		permits: NewPermitPool(cfg.MaxConcurrentJobs),
		stopCh:  make(chan struct{}),
	}
}

// Start spawns the num_workers acquisition loops.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.NumWorkers; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	log.Printf("worker: pool started with %d loops, %d permits", p.cfg.NumWorkers, p.cfg.MaxConcurrentJobs)
}

// Stop flips the shutdown flag, closes the permit pool so any loop
// blocked acquiring one wakes up, and waits for every loop to exit.
// In-flight Executor tasks are detached — Stop does not await them
// (spec §9, open question 2, decided as best-effort).
func (p *Pool) Stop() {
	log.Println("worker: pool stopping")
	p.shutdown.Store(true)
	close(p.stopCh)
	p.permits.Close()
	p.wg.Wait()
	log.Println("worker: pool stopped")
}

// loop is a single acquisition loop: claim, hand off to a detached
// executor under a permit, or back off.
func (p *Pool) loop(id int) {
	defer p.wg.Done()
	ctx := context.Background()

	for {
		if p.shutdown.Load() {
			log.Printf("worker: loop %d observed shutdown flag, exiting", id)
			return
		}

		job, ok, err := p.store.ClaimNext(ctx)
		if err != nil {
			log.Printf("worker: loop %d: claim failed: %v", id, err)
			if p.sleep(p.cfg.ErrorInterval) {
				return
			}
			continue
		}

		if !ok {
			if p.sleep(p.cfg.IdleInterval) {
				return
			}
			continue
		}

		if p.metrics != nil {
			p.metrics.JobsClaimed.Inc()
			p.metrics.QueueDepth.Dec()
		}

		release, err := p.permits.Acquire(context.Background())
		if err != nil {
			log.Printf("worker: loop %d: permit pool closed, exiting", id)
			return
		}

		go func(job store.JobRecord) {
			defer release()
			executor.Run(context.Background(), p.store, job, p.cfg.Work, p.metrics)
		}(job)
	}
}

// sleep waits for d, or wakes early on shutdown. It reports whether the
// loop should exit immediately.
func (p *Pool) sleep(d time.Duration) (shouldExit bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-p.stopCh:
		return true
	}
}
