package slooze

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Health performs a health check of the database connection, including latency and
// pool statistics when the store owns a dbkit connection.
func (s *BunStore) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}
	return dbkit.HealthStatus{
		Healthy: s.IsHealthy(ctx),
		Error:   "Limited health check - not a DBKit instance",
	}
}

// IsHealthy reports whether the database is reachable.
func (s *BunStore) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	var one int
	return s.db.NewRaw("SELECT 1").Scan(ctx, &one) == nil
}

// GetPoolStats returns connection pool statistics, or zero values inside a transaction.
func (s *BunStore) GetPoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}
