// Connection registry powering the realtime question feed in Quorum.
// Keeps the authoritative set of open stream connections and performs fan-out writes.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/pkg/log"
	"encoding/json"
	"errors"
	"sync"
)

// Buffered frames per connection, a client this far behind is considered dead.
const frameBufferSize = 16

var (
	ErrConnectionClosed  = errors.New("sse: connection is closed")
	ErrConnectionStalled = errors.New("sse: connection send queue is full")
)

// Connection represents one open stream channel to a single client.
// It carries no user identity, delivery only needs the transport handle.
type Connection struct {
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection returns a fresh connection handle with a bounded send queue.
func NewConnection() *Connection {
	return &Connection{
		frames: make(chan []byte, frameBufferSize),
		done:   make(chan struct{}),
	}
}

// Frames returns the channel the stream handler drains into the response body.
func (c *Connection) Frames() <-chan []byte {
	return c.frames
}

// Done is closed once the connection has been deregistered.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// close marks the connection dead. Idempotent, frames is deliberately never
// closed so concurrent broadcasters can't panic on a closed channel.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// write queues a serialized frame onto the connection.
// Fails when the connection is closed or its send queue is backed up.
func (c *Connection) write(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.frames <- frame:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrConnectionStalled
	}
}

// Registry is the process-wide set of open stream connections.
// Constructed once in main and injected into the stream service,
// a fresh one per test keeps its lifecycle explicit.
type Registry struct {
	logger log.Logger

	mu    sync.Mutex
	conns []*Connection
}

// NewRegistry returns an empty connection registry.
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register makes conn eligible for subsequent broadcasts.
// Registering an already present connection is a no-op.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c == conn {
			return
		}
	}
	r.conns = append(r.conns, conn)
}

// Deregister removes conn from the registry and closes it.
// Safe to call on a connection which is not registered anymore.
func (r *Registry) Deregister(conn *Connection) {
	r.mu.Lock()
	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			r.mu.Unlock()
			conn.close()
			return
		}
	}
	r.mu.Unlock()
}

// Broadcast serializes event once and attempts to deliver it to every
// registered connection in registration order. A connection failing its write
// is deregistered on the spot, the failure never interrupts delivery to the
// remaining connections and never surfaces to the caller.
func (r *Registry) Broadcast(event entity.SSEEvent) {
	frame, mrsherr := marshalFrame(event)
	if mrsherr != nil {
		r.logger.Error().Err(mrsherr).Msg("Couldn't serialize SSE event in registry.Broadcast")
		return
	}

	// Snapshot under the lock, deliver outside of it.
	// Removing a dead connection while iterating the live slice is the classic hazard here.
	r.mu.Lock()
	snapshot := make([]*Connection, len(r.conns))
	copy(snapshot, r.conns)
	r.mu.Unlock()

	for _, conn := range snapshot {
		if werr := conn.write(frame); werr != nil {
			// Transport already gone or hopelessly backed up, self-heal the registry
			r.logger.Warn().Err(werr).Msg("Dropping dead connection found during SSE broadcast")
			r.Deregister(conn)
		}
	}
}

// Len returns the number of currently registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Close deregisters every connection, called during graceful server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()
	for _, conn := range conns {
		conn.close()
	}
}

// marshalFrame wraps the JSON encoded event into a wire frame - data: <JSON>\n\n
func marshalFrame(event entity.SSEEvent) ([]byte, error) {
	payload, mrsherr := json.Marshal(event)
	if mrsherr != nil {
		return nil, mrsherr
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}
