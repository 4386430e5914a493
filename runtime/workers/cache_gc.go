package workers

import (
	"context"
	"log/slog"
	"time"
)

const defaultDiscardRatio = 0.5

type garbageCollector interface {
	RunGC(discardRatio float64) error
}

// CacheGCWorker periodically reclaims space in the rate cache's value log.
type CacheGCWorker struct {
	log      *slog.Logger
	cache    garbageCollector
	interval time.Duration
}

func NewCacheGCWorker(log *slog.Logger, cache garbageCollector, interval time.Duration) *CacheGCWorker {
	return &CacheGCWorker{log: log, cache: cache, interval: interval}
}

func (w *CacheGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.cache.RunGC(defaultDiscardRatio); err != nil {
				// Returning lets the supervisor restart us after its delay.
				return err
			}
		}
	}
}
