package shutdown

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeWorkers struct {
	stopped       atomic.Bool
	server        *http.Server
	ingressClosed atomic.Bool
}

// Stop records whether the HTTP server was already shut down when the
// worker pool was stopped: ListenAndServe on a server that is shutting
// down returns http.ErrServerClosed without listening.
func (f *fakeWorkers) Stop() {
	if f.server != nil {
		f.ingressClosed.Store(f.server.ListenAndServe() == http.ErrServerClosed)
	}
	f.stopped.Store(true)
}

func TestShutdown_OrdersIngressThenWorkers(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Start()
	defer srv.Close()

	httpServer := &http.Server{Addr: srv.Listener.Addr().String()}
	workers := &fakeWorkers{server: httpServer}

	c := &Coordinator{
		Server:     httpServer,
		Workers:    workers,
		DB:         nil,
		GraceDelay: 2 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		c.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown did not complete")
	}

	require.True(t, workers.stopped.Load(), "worker pool must be stopped during shutdown")
	require.True(t, workers.ingressClosed.Load(), "HTTP ingress must be shut down before the worker pool stops")
}
