package recommend

import (
	"context"
	"math/rand"
	"time"
)

// Pacer throttles outbound detail fetches. Injected so the ranker is
// testable without wall-clock waits.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomPacer sleeps a uniformly random duration within [Min, Max] before
// each call. Deliberate rate-limit avoidance against the upstream API.
type RandomPacer struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomPacer builds a pacer over the given delay range. Zero or
// inverted ranges fall back to the 1-2 second default.
func NewRandomPacer(min, max time.Duration) *RandomPacer {
	if min <= 0 || max < min {
		min = time.Second
		max = 2 * time.Second
	}
	return &RandomPacer{Min: min, Max: max}
}

// Wait blocks for the randomized delay or until the context is done.
func (p *RandomPacer) Wait(ctx context.Context) error {
	delay := p.Min
	if span := p.Max - p.Min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span) + 1))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
