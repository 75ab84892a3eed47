package session

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically sweeps expired sessions out of a MemoryStore. The
// Redis backend expires keys natively and does not need one.
type Cleaner struct {
	store    *MemoryStore
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(store *MemoryStore, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		store:    store,
		log:      log,
		interval: interval,
	}
}

// Run starts the sweep loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped")
			return
		case <-ticker.C:
			if evicted := c.store.Sweep(); evicted > 0 {
				c.log.Info("evicted idle sessions", slog.Int("count", evicted))
			}
		}
	}
}
