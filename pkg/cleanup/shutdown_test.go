// Graceful shutdown tests in Quorum.

package cleanup

import (
	"Quorum/pkg/log"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Global instance of log.Logger to be used during cleanup testing.
var logger log.Logger = log.New("test")

// Global context
var ctx context.Context = context.Background()

// Helper to run a plain HTTP server on a free local port.
func startTestServer(t *testing.T) (*http.Server, string) {
	t.Helper()
	listener, lerr := net.Listen("tcp", "127.0.0.1:0")
	if lerr != nil {
		t.Fatalf("couldn't open test listener: %v", lerr)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Error in Serve()")
		}
	}()
	return srv, listener.Addr().String()
}

func TestGracefulShutdownSIGINT(t *testing.T) {
	srv, addr := startTestServer(t)
	var registryClosed int64

	// Send SIGINT signal to test graceful shutdown
	go func() {
		time.Sleep(100 * time.Millisecond)
		logger.Info().Msg("Sending SIGINT signal")
		syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	}()

	// Graceful shutdown of Quorum server triggered due to system interruptions
	wait := GracefulShutdown(ctx, logger, 5*time.Second, map[string]Operation{
		"Stream-registry": func(ctx context.Context) error {
			atomic.AddInt64(&registryClosed, 1)
			return nil
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	<-wait

	assert.Equal(t, int64(1), atomic.LoadInt64(&registryClosed))
	_, testerr := http.Get(fmt.Sprintf("http://%s/api", addr))
	assert.True(t, testerr != nil)
}

func TestGracefulShutdownSIGTERM(t *testing.T) {
	srv, addr := startTestServer(t)
	var registryClosed int64

	// Send SIGTERM signal to test graceful shutdown
	go func() {
		time.Sleep(100 * time.Millisecond)
		logger.Info().Msg("Sending SIGTERM signal")
		syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}()

	// Graceful shutdown of Quorum server triggered due to system interruptions
	wait := GracefulShutdown(ctx, logger, 5*time.Second, map[string]Operation{
		"Stream-registry": func(ctx context.Context) error {
			atomic.AddInt64(&registryClosed, 1)
			return nil
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	<-wait

	assert.Equal(t, int64(1), atomic.LoadInt64(&registryClosed))
	_, testerr := http.Get(fmt.Sprintf("http://%s/api", addr))
	assert.True(t, testerr != nil)
}
