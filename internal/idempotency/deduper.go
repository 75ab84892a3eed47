// Package idempotency drops duplicate webhook deliveries. VK re-posts an
// event when the bot does not confirm it fast enough, so each message id
// is remembered for a short TTL and later deliveries are ignored.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Deduper remembers delivery keys. Seen reports whether the key was
// already recorded and records it if not.
type Deduper interface {
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key builds a deterministic delivery key from the given parts.
func Key(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
