package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// StartDBStatsCollector периодически публикует статистику пула соединений,
// пока не отменён ctx
func StartDBStatsCollector(ctx context.Context, sqlDB *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := sqlDB.Stats()

			DBConnectionPoolActive.Set(float64(stats.InUse))
			DBConnectionPoolIdle.Set(float64(stats.Idle))

			log.Debug().
				Int("in_use", stats.InUse).
				Int("idle", stats.Idle).
				Int("max_open", stats.MaxOpenConnections).
				Msg("updated db connection pool metrics")

		case <-ctx.Done():
			log.Info().Msg("stopping db stats collector")
			return
		}
	}
}
