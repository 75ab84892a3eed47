package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/idempotency"
)

// Dedupe drops redelivered messages. Webhook transports re-post an event
// when the first delivery is not confirmed in time; without this the user
// would get every reply twice. Deduper failures fail open.
func Dedupe(deduper idempotency.Deduper, ttl time.Duration, log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next channel.Handler) channel.Handler {
		return func(ctx context.Context, msg channel.Message) {
			if deduper == nil || msg.MessageID == "" {
				next(ctx, msg)
				return
			}

			key := idempotency.Key(msg.SenderID, msg.MessageID)
			seen, err := deduper.Seen(ctx, key, ttl)
			if err != nil {
				log.Warn("dedupe check failed, passing message through", slog.Any("error", err))
				next(ctx, msg)
				return
			}
			if seen {
				log.Debug("duplicate delivery dropped",
					slog.String("sender_id", msg.SenderID),
					slog.String("message_id", msg.MessageID),
				)
				return
			}

			next(ctx, msg)
		}
	}
}
