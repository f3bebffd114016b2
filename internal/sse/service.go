// Service layer of the realtime question stream in Quorum.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"context"
	"time"
)

type Service interface {
	// Subscribe registers a fresh stream connection and queues its handshake event.
	// Only the new subscriber receives the handshake, never the rest of the registry.
	Subscribe(ctx context.Context) (*Connection, error)
	// Unsubscribe removes the connection after its transport closed.
	Unsubscribe(conn *Connection)
	// Publish broadcasts a new-question event to every subscribed connection.
	Publish(ctx context.Context, question entity.Question)
	// ClientCount returns the number of active stream connections.
	ClientCount(ctx context.Context) int64
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
type service struct {
	registry *Registry
	sseRepo  Repository
	logger   log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(registry *Registry, sseRepo Repository, logger log.Logger) Service {
	return service{registry, sseRepo, logger}
}

func (s service) Subscribe(ctx context.Context) (*Connection, error) {
	conn := NewConnection()
	s.registry.Register(conn)

	handshake := entity.SSEEvent{
		Type:      entity.SSETypeConnected,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	frame, mrsherr := marshalFrame(handshake)
	if mrsherr != nil {
		// Can't greet the client, take the connection back out
		s.logger.WithCtx(ctx).Error().Err(mrsherr).Msg("Couldn't serialize handshake event in sse.Subscribe")
		s.registry.Deregister(conn)
		return nil, errors.InternalServerError("")
	}
	if werr := conn.write(frame); werr != nil {
		s.logger.WithCtx(ctx).Error().Err(werr).Msg("Couldn't queue handshake event in sse.Subscribe")
		s.registry.Deregister(conn)
		return nil, errors.InternalServerError("")
	}

	s.sseRepo.IncrClients(ctx, s.logger)
	return conn, nil
}

func (s service) Unsubscribe(conn *Connection) {
	s.registry.Deregister(conn)
	// The request context is already done by the time the transport unwinds,
	// the gauge update runs on a detached context.
	s.sseRepo.DecrClients(context.Background(), s.logger)
}

func (s service) Publish(ctx context.Context, question entity.Question) {
	event := entity.SSEEvent{
		Type:      entity.SSETypeNewQuestion,
		Question:  &question,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.registry.Broadcast(event)
}

func (s service) ClientCount(ctx context.Context) int64 {
	count, dberr := s.sseRepo.ClientCount(ctx, s.logger)
	if dberr != nil {
		// The in-process registry is authoritative anyway
		return int64(s.registry.Len())
	}
	return count
}
