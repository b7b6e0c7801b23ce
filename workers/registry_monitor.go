package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ActiveCounter reports how many matches are live. *services.SessionService satisfies it.
type ActiveCounter interface {
	Active() int
}

// PollActiveMatches logs the number of live matches every interval, only when it changed.
// report, when set, receives every sample.
func PollActiveMatches(ctx context.Context, counter ActiveCounter, interval time.Duration, logger *zap.Logger, report func(int)) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("🔁 [REGISTRY] starting active match polling", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ctx.Done():
			logger.Info("⏹️ [REGISTRY] active match polling stopped")
			return
		case <-ticker.C:
			n := counter.Active()
			if report != nil {
				report(n)
			}
			if n == last {
				continue
			}
			logger.Info("📈 [REGISTRY] live matches", zap.Int("active", n), zap.Int("previous", max(last, 0)))
			last = n
		}
	}
}
