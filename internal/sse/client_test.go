// Unit tests of the stream Subscriber's connection lifecycle and backoff handling.

package sse

import (
	"Quorum/pkg/log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var clientTestLogger log.Logger = log.New("test")

func TestBackoffDelaySchedule(t *testing.T) {
	// Doubling schedule seeded at 1s
	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	for attempt, want := range expected {
		assert.Equal(t, want, backoffDelay(time.Second, attempt))
	}
}

func TestSubscriberStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestConnectIsIdempotent(t *testing.T) {
	var opened int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&opened, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	subscriber := NewSubscriber(SubscriberOptions{URL: srv.URL}, clientTestLogger)
	defer subscriber.Disconnect()

	subscriber.Connect()
	assert.Eventually(t, func() bool {
		return subscriber.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// Repeated calls while a transport is open must not open a duplicate
	subscriber.Connect()
	subscriber.Connect()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&opened))
}

func TestReconnectBudgetExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var exhausted int64
	subscriber := NewSubscriber(SubscriberOptions{
		URL:         srv.URL,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnError: func(err error) {
			if err == ErrReconnectExhausted {
				atomic.AddInt64(&exhausted, 1)
			}
		},
	}, clientTestLogger)

	subscriber.Connect()
	// The terminal failure is reported through OnError exactly once
	assert.Eventually(t, func() bool {
		return subscriber.State() == StateFailed && atomic.LoadInt64(&exhausted) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Failed is terminal until an explicit Connect, which resumes with a clean budget
	subscriber.Connect()
	assert.Eventually(t, func() bool {
		return subscriber.State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)
	subscriber.Disconnect()
}

func TestAttemptsResetOnSuccessfulConnection(t *testing.T) {
	// Every accepted connection is dropped right after the handshake frame.
	// With MaxAttempts of 1 the subscriber can only keep coming back if the
	// attempt counter resets on each successful open.
	var connects int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"type\":\"connected\",\"timestamp\":\"2026-01-01T00:00:00Z\"}\n\n"))
		w.(http.Flusher).Flush()
	}))
	defer srv.Close()

	subscriber := NewSubscriber(SubscriberOptions{
		URL:         srv.URL,
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		OnConnect: func() {
			atomic.AddInt64(&connects, 1)
		},
	}, clientTestLogger)

	subscriber.Connect()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&connects) >= 3
	}, 5*time.Second, 10*time.Millisecond)
	subscriber.Disconnect()
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	// Nothing is listening on the target, the dial fails immediately
	// and the long backoff keeps the subscriber parked in Reconnecting.
	var disconnects int64
	subscriber := NewSubscriber(SubscriberOptions{
		URL:       "http://127.0.0.1:1/api/questions/stream",
		BaseDelay: time.Hour,
		OnDisconnect: func() {
			atomic.AddInt64(&disconnects, 1)
		},
	}, clientTestLogger)

	subscriber.Connect()
	assert.Eventually(t, func() bool {
		return subscriber.State() == StateReconnecting
	}, 2*time.Second, 10*time.Millisecond)

	subscriber.Disconnect()
	assert.Equal(t, StateDisconnected, subscriber.State())
	assert.Equal(t, int64(1), atomic.LoadInt64(&disconnects))

	// The stopped timer must not resurrect the transport
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StateDisconnected, subscriber.State())
}

func TestDisconnectBeforeConnectIsSafe(t *testing.T) {
	subscriber := NewSubscriber(SubscriberOptions{URL: "http://127.0.0.1:1/"}, clientTestLogger)
	subscriber.Disconnect()
	assert.Equal(t, StateDisconnected, subscriber.State())
}
