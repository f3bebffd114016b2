// Unit tests of the connection registry powering the question stream.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/pkg/log"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var registryTestLogger log.Logger = log.New("test")

// Helper to pull one queued frame off a connection without blocking the test.
func receiveFrame(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case frame := <-conn.Frames():
		return frame
	default:
		t.Fatal("expected a queued frame, got none")
	}
	return nil
}

func sampleEvent() entity.SSEEvent {
	return entity.SSEEvent{
		Type: entity.SSETypeNewQuestion,
		Question: &entity.Question{
			ID:       "cf3rhbgquivnvp3hirq0",
			Name:     "Anonymous",
			Category: "Programming",
			Question: "How do goroutines differ from OS threads?",
		},
		Timestamp: "2026-01-01T00:00:00Z",
	}
}

func TestBroadcastReachesEveryConnection(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	conns := []*Connection{NewConnection(), NewConnection(), NewConnection()}
	for _, conn := range conns {
		registry.Register(conn)
	}

	registry.Broadcast(sampleEvent())

	for _, conn := range conns {
		frame := receiveFrame(t, conn)
		assert.True(t, strings.HasPrefix(string(frame), "data: "))
		assert.True(t, strings.HasSuffix(string(frame), "\n\n"))

		var event entity.SSEEvent
		payload := strings.TrimSuffix(strings.TrimPrefix(string(frame), "data: "), "\n\n")
		assert.NoError(t, json.Unmarshal([]byte(payload), &event))
		assert.Equal(t, entity.SSETypeNewQuestion, event.Type)
		assert.NotNil(t, event.Question)
		assert.Equal(t, "cf3rhbgquivnvp3hirq0", event.Question.ID)
	}
	assert.Equal(t, 3, registry.Len())
}

func TestRegisterIsIdempotent(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	conn := NewConnection()
	registry.Register(conn)
	registry.Register(conn)
	assert.Equal(t, 1, registry.Len())

	// A single broadcast must queue a single frame
	registry.Broadcast(sampleEvent())
	receiveFrame(t, conn)
	select {
	case <-conn.Frames():
		t.Fatal("duplicate registration caused a duplicate delivery")
	default:
	}
}

func TestDeregisterClosesConnection(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	conn := NewConnection()
	registry.Register(conn)
	registry.Deregister(conn)

	assert.Equal(t, 0, registry.Len())
	select {
	case <-conn.Done():
	default:
		t.Fatal("deregistered connection should be closed")
	}
	assert.ErrorIs(t, conn.write([]byte("data: {}\n\n")), ErrConnectionClosed)
}

func TestDeregisterUnknownConnectionIsSafe(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	known := NewConnection()
	registry.Register(known)

	stranger := NewConnection()
	registry.Deregister(stranger)

	assert.Equal(t, 1, registry.Len())
	select {
	case <-stranger.Done():
		t.Fatal("unknown connection must not get closed by Deregister")
	default:
	}
}

func TestBroadcastDropsStalledConnection(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	healthy := NewConnection()
	stalled := NewConnection()
	registry.Register(healthy)
	registry.Register(stalled)

	// Back up the stalled connection's send queue completely
	for i := 0; i < frameBufferSize; i++ {
		assert.NoError(t, stalled.write([]byte("data: {}\n\n")))
	}

	registry.Broadcast(sampleEvent())

	// Healthy subscriber got the event, the stalled one got dropped
	receiveFrame(t, healthy)
	assert.Equal(t, 1, registry.Len())
	select {
	case <-stalled.Done():
	default:
		t.Fatal("stalled connection should have been closed during broadcast")
	}

	// Follow-up broadcasts keep working against the healed registry
	registry.Broadcast(sampleEvent())
	receiveFrame(t, healthy)
}

func TestBroadcastOnEmptyRegistry(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	registry.Broadcast(sampleEvent())
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryClose(t *testing.T) {
	registry := NewRegistry(registryTestLogger)
	conns := []*Connection{NewConnection(), NewConnection()}
	for _, conn := range conns {
		registry.Register(conn)
	}
	registry.Close()

	assert.Equal(t, 0, registry.Len())
	for _, conn := range conns {
		select {
		case <-conn.Done():
		default:
			t.Fatal("Close should close every registered connection")
		}
	}
}

func TestMarshalFrameWireFormat(t *testing.T) {
	frame, err := marshalFrame(entity.SSEEvent{Type: entity.SSETypeConnected, Timestamp: "2026-01-01T00:00:00Z"})
	assert.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"connected\",\"timestamp\":\"2026-01-01T00:00:00Z\"}\n\n", string(frame))
}
