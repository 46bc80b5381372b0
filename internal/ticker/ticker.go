package ticker

import (
	"context"
	"time"

	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// Tickable is driven once per cycle.
type Tickable interface {
	OnTick(ctx context.Context) int
}

// Run calls t.OnTick every interval until ctx is done. Ticks never overlap;
// a slow pass delays the next one instead of queueing more.
func Run(ctx context.Context, interval time.Duration, t Tickable, logger logpkg.Logger) {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	if interval <= 0 {
		interval = time.Second
	}

	tk := time.NewTicker(interval)
	defer tk.Stop()

	logger.Info("tick driver started", logpkg.Dur("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("tick driver stopped")
			return
		case <-tk.C:
			if n := t.OnTick(ctx); n > 0 {
				logger.Debug("tick", logpkg.Int("evicted", n))
			}
		}
	}
}
