package twofactor

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/logger"
)

// AttemptPruner deletes attempt records older than cutoff. MemoryStore,
// pgstore.Store and mongostore.Store implement it.
type AttemptPruner interface {
	PruneAttempts(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunAttemptPruner deletes attempts older than retention every interval
// until ctx is done. Failures are logged and retried on the next tick.
func RunAttemptPruner(ctx context.Context, p AttemptPruner, retention, interval time.Duration, log *slog.Logger) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("attempt_pruner"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			removed, err := p.PruneAttempts(ctx, now.Add(-retention))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.ErrorContext(ctx, "prune attempts failed", logger.Error(err))
				continue
			}
			if removed > 0 {
				log.InfoContext(ctx, "pruned attempts",
					slog.Int64("removed", removed),
					logger.Duration(time.Since(start)),
				)
			}
		}
	}
}
