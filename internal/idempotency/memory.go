package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper is the in-process Deduper used when Redis is not
// configured.
type MemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryDeduper returns an in-memory deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{entries: make(map[string]time.Time)}
}

var _ Deduper = (*MemoryDeduper)(nil)

// Seen reports whether the key is already recorded and not yet expired.
func (d *MemoryDeduper) Seen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expiry, ok := d.entries[key]; ok && expiry.After(now) {
		return true, nil
	}
	d.entries[key] = now.Add(ttl)
	return false, nil
}

// Sweep drops expired entries.
func (d *MemoryDeduper) Sweep() {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, expiry := range d.entries {
		if expiry.Before(now) {
			delete(d.entries, key)
		}
	}
}
