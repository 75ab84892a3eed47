package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the in-process Limiter used when Redis is not
// configured. State is lost on restart, which is acceptable for chat
// throttling.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

// NewMemoryLimiter returns an in-memory sliding-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string][]time.Time)}
}

var _ Limiter = (*MemoryLimiter)(nil)

// Check enforces the sliding-window limit for the key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.buckets[key][:0]
	for _, t := range m.buckets[key] {
		if !t.Before(windowStart) {
			recent = append(recent, t)
		}
	}

	allowed := len(recent) < limit
	if allowed {
		recent = append(recent, now)
	}
	m.buckets[key] = recent

	remaining := limit - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}, nil
}

// Sweep drops buckets idle longer than maxAge.
func (m *MemoryLimiter) Sweep(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, times := range m.buckets {
		if len(times) == 0 || times[len(times)-1].Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}
