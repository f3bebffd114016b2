// sse repository keeps a best-effort gauge of active stream connections in the DB.
// The count feeds the admin stats API, the in-process registry remains authoritative.

package sse

import (
	"Quorum/pkg/db"
	"Quorum/pkg/log"
	"context"

	"github.com/go-redis/redis/v8"
)

const clientsGaugeKey = "stream_clients"

type Repository interface {
	// IncrClients bumps the active stream connection gauge.
	IncrClients(ctx context.Context, logger log.Logger)
	// DecrClients drops the active stream connection gauge.
	DecrClients(ctx context.Context, logger log.Logger)
	// ClientCount returns the current gauge value.
	ClientCount(ctx context.Context, logger log.Logger) (int64, error)
	// ResetClients zeroes the gauge, called once during server bootstrap.
	ResetClients(ctx context.Context, logger log.Logger)
}

// repository struct of sse Repository.
// Object of this will be passed around from main to internal.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of sse repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func (r repository) IncrClients(ctx context.Context, logger log.Logger) {
	dberr := r.db.Client().Incr(ctx, clientsGaugeKey).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of Incr in sse.IncrClients")
	}
}

func (r repository) DecrClients(ctx context.Context, logger log.Logger) {
	dberr := r.db.Client().Decr(ctx, clientsGaugeKey).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of Decr in sse.DecrClients")
	}
}

func (r repository) ClientCount(ctx context.Context, logger log.Logger) (int64, error) {
	count, dberr := r.db.Client().Get(ctx, clientsGaugeKey).Int64()
	if dberr != nil {
		if dberr == redis.Nil {
			// Gauge not set yet, nobody has connected
			return 0, nil
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of Get in sse.ClientCount")
		return 0, dberr
	}
	return count, nil
}

func (r repository) ResetClients(ctx context.Context, logger log.Logger) {
	// Connections don't survive a process restart, neither should the gauge
	dberr := r.db.Client().Del(ctx, clientsGaugeKey).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of Del in sse.ResetClients")
	}
}
