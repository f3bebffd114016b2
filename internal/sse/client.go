// Client side of the realtime question stream.
// Subscriber keeps one live stream open, parses inbound events and self-heals
// on connection loss with bounded exponential backoff.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/pkg/log"
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// SubscriberState tracks where a Subscriber is in its connection lifecycle.
type SubscriberState int

const (
	StateDisconnected SubscriberState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	// StateFailed is terminal, only a fresh explicit Connect resumes from here.
	StateFailed
)

func (s SubscriberState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrReconnectExhausted is surfaced through OnError once the retry budget is spent.
var ErrReconnectExhausted = errors.New("sse: maximum reconnection attempts reached")

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
)

// SubscriberOptions configures a Subscriber. Only URL is mandatory.
type SubscriberOptions struct {
	// URL of the stream endpoint to subscribe to.
	URL string
	// MaxAttempts bounds automatic reconnects, defaults to DefaultMaxAttempts.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff, defaults to DefaultBaseDelay.
	BaseDelay time.Duration
	// HTTPClient used for the long-lived GET, defaults to a plain client.
	HTTPClient *http.Client

	// OnNewQuestion is invoked once per received new-question event.
	OnNewQuestion func(question entity.Question)
	// OnConnect is invoked on every successful open.
	OnConnect func()
	// OnDisconnect is invoked once per explicit Disconnect call.
	OnDisconnect func()
	// OnError is invoked on transport errors and reconnect exhaustion.
	OnError func(err error)
}

// Subscriber owns exactly one transport at a time.
type Subscriber struct {
	opts   SubscriberOptions
	logger log.Logger

	mu       sync.Mutex
	state    SubscriberState
	attempts int
	cancel   context.CancelFunc
	retry    *time.Timer
}

// NewSubscriber returns a Subscriber in the Disconnected state.
func NewSubscriber(opts SubscriberOptions, logger log.Logger) *Subscriber {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Subscriber{opts: opts, logger: logger, state: StateDisconnected}
}

// Connect opens the stream. Idempotent, calling it while a transport is
// already opening or open never opens a duplicate. A fresh explicit call from
// Disconnected or Failed resumes with a clean retry budget.
func (s *Subscriber) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConnecting, StateConnected, StateReconnecting:
		return
	}
	s.attempts = 0
	s.startLocked()
}

// Disconnect cancels any pending reconnect timer, closes the transport and
// goes quiet. Safe to call at any time, even if Connect was never called.
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateDisconnected
	s.mu.Unlock()

	if s.opts.OnDisconnect != nil {
		s.opts.OnDisconnect()
	}
}

// State reports the subscriber's current connection state.
func (s *Subscriber) State() SubscriberState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// startLocked transitions to Connecting and launches the transport goroutine.
// Caller must hold mu.
func (s *Subscriber) startLocked() {
	s.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// run owns the transport for one connection attempt, from dial to read loop.
func (s *Subscriber) run(ctx context.Context) {
	request, reqerr := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.URL, nil)
	if reqerr != nil {
		s.transportFailed(reqerr)
		return
	}
	request.Header.Set("Accept", "text/event-stream")
	request.Header.Set("Cache-Control", "no-cache")

	response, herr := s.opts.HTTPClient.Do(request)
	if herr != nil {
		s.transportFailed(herr)
		return
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		s.transportFailed(fmt.Errorf("sse: unexpected status %d from stream endpoint", response.StatusCode))
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		// Disconnect raced the dial
		s.mu.Unlock()
		return
	}
	s.state = StateConnected
	// Successful open resets the backoff schedule
	s.attempts = 0
	s.mu.Unlock()
	if s.opts.OnConnect != nil {
		s.opts.OnConnect()
	}

	scanner := bufio.NewScanner(response.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.handleLine(scanner.Text())
	}

	// Reader ended, either deliberately or because the transport dropped
	if ctx.Err() != nil {
		return
	}
	rerr := scanner.Err()
	if rerr == nil {
		rerr = io.EOF
	}
	s.transportFailed(rerr)
}

// handleLine parses one wire line and dispatches the event it carries.
// A malformed frame is logged and dropped, the stream stays open.
func (s *Subscriber) handleLine(line string) {
	if !strings.HasPrefix(line, "data: ") {
		return
	}
	var event entity.SSEEvent
	if mrsherr := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); mrsherr != nil {
		s.logger.Warn().Err(mrsherr).Msg("Couldn't parse SSE frame, dropping it")
		return
	}
	switch event.Type {
	case entity.SSETypeNewQuestion:
		if event.Question != nil && s.opts.OnNewQuestion != nil {
			s.opts.OnNewQuestion(*event.Question)
		}
	case entity.SSETypeConnected:
		// Handshake is purely informational
		s.logger.Debug().Msgf("Stream handshake received at %s", event.Timestamp)
	}
}

// transportFailed drives the reconnection state machine after a connection error.
func (s *Subscriber) transportFailed(err error) {
	s.mu.Lock()
	if s.state == StateDisconnected {
		// Deliberate disconnect, nothing to heal
		s.mu.Unlock()
		return
	}
	var exhausted bool
	if s.attempts < s.opts.MaxAttempts {
		delay := backoffDelay(s.opts.BaseDelay, s.attempts)
		s.attempts++
		attempt := s.attempts
		s.state = StateReconnecting
		s.retry = time.AfterFunc(delay, func() {
			s.reconnect(attempt)
		})
		s.logger.Warn().Err(err).Msgf("Stream connection lost, retrying in %s (attempt %d/%d)", delay, attempt, s.opts.MaxAttempts)
	} else {
		s.state = StateFailed
		exhausted = true
		s.logger.Error().Err(err).Msg("Stream reconnection budget exhausted, giving up")
	}
	s.mu.Unlock()

	if s.opts.OnError != nil {
		s.opts.OnError(err)
		if exhausted {
			s.opts.OnError(ErrReconnectExhausted)
		}
	}
}

// reconnect fires from the backoff timer.
func (s *Subscriber) reconnect(attempt int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReconnecting || s.attempts != attempt {
		// A Disconnect raced the timer
		return
	}
	s.startLocked()
}

// backoffDelay returns base * 2^attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
}
