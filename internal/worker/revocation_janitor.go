package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger drops revocations whose tokens expired at or before now.
type Purger interface {
	Purge(now time.Time) int
}

// RunRevocationJanitor purges expired revocations every interval until ctx
// is cancelled.
func RunRevocationJanitor(ctx context.Context, registry Purger, interval time.Duration, logger *zap.Logger) {
	if registry == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := registry.Purge(now); removed > 0 {
				logger.Debug("purged expired revocations", zap.Int("removed", removed))
			}
		}
	}
}
