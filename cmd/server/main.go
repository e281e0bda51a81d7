// Command server runs the job queue: HTTP ingress, the worker pool, and
// the shutdown sequence that drains both in order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/orchestrix/jobqueue/internal/api"
	"github.com/orchestrix/jobqueue/internal/config"
	"github.com/orchestrix/jobqueue/internal/executor"
	"github.com/orchestrix/jobqueue/internal/metrics"
	"github.com/orchestrix/jobqueue/internal/shutdown"
	"github.com/orchestrix/jobqueue/internal/store"
	"github.com/orchestrix/jobqueue/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	migrationsDir := flag.String("migrations", "migrations", "directory of schema migrations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := store.Migrate(databaseURLScheme(cfg.Database.URL), *migrationsDir); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrate: schema is current")

	pool, err := store.NewConnectionPoolFromURL(context.Background(), cfg.Database.URL, store.PoolOptions{
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	log.Println("database: connection pool ready")

	s := store.NewPostgresStore(pool)
	m := metrics.New()

	if n, err := s.CountByStatus(context.Background(), store.StatusNew); err == nil {
		m.QueueDepth.Set(float64(n))
	} else {
		log.Printf("metrics: initial queue depth unavailable: %v", err)
	}

	pools := worker.New(s, m, worker.Config{
		NumWorkers:        cfg.Queue.NumWorkers,
		MaxConcurrentJobs: cfg.Queue.MaxConcurrentJobs,
		Work:              executor.DefaultWork,
	})
	pools.Start()

	handler := api.NewHandler(s, m, pool)
	router := api.NewRouter(handler, int64(cfg.Server.MaxPayloadBytes))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := &shutdown.Coordinator{
		Server:     server,
		Workers:    pools,
		DB:         pool,
		GraceDelay: cfg.Shutdown.Timeout,
	}

	// The serve loop and the shutdown waiter race on the same group
	// context: a signal cancels it directly, a fatal server error
	// cancels it via the group, and either way the coordinator drains
	// ingress and the worker pool before the process exits.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("http: listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		coordinator.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("http: %v", err)
	}
}

// databaseURLScheme normalizes a postgres:// DSN to the scheme the
// golang-migrate pgx/v5 driver expects.
func databaseURLScheme(url string) string {
	return strings.Replace(url, "postgres://", "pgx5://", 1)
}
