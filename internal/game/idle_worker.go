package game

import (
	"context"
	"time"

	"github.com/playpool/eightball/internal/logger"
)

// StartIdleWorker closes matches that have accepted no command for maxIdle.
func StartIdleWorker(ctx context.Context, gm *Manager, poll, maxIdle time.Duration) {
	if gm == nil || poll <= 0 || maxIdle <= 0 {
		logger.Log.Warn("[IDLE] manager or intervals missing; idle worker not started")
		return
	}

	logger.Log.Infow("[IDLE] idle worker started", "poll", poll, "max_idle", maxIdle)
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Log.Info("[IDLE] idle worker stopping")
				return
			case now := <-ticker.C:
				sweepIdle(gm, now, maxIdle)
			}
		}
	}()
}

// sweepIdle closes every match idle for longer than maxIdle and returns how many.
func sweepIdle(gm *Manager, now time.Time, maxIdle time.Duration) int {
	ids := gm.idleMatches(now.Add(-maxIdle))
	for _, id := range ids {
		if err := gm.Close(id, "idle"); err == nil {
			logger.Log.Infow("[IDLE] closed idle match", "match", id)
		}
	}
	return len(ids)
}
