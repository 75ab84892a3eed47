package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/ratelimit"
)

// RateLimit enforces a per-user message budget. Over-limit messages are
// dropped with a short notice; limiter failures fail open.
func RateLimit(limiter ratelimit.Limiter, limit int, window time.Duration, notice string, sender channel.Sender, log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next channel.Handler) channel.Handler {
		return func(ctx context.Context, msg channel.Message) {
			if limiter == nil || limit <= 0 {
				next(ctx, msg)
				return
			}

			result, err := limiter.Check(ctx, "user:"+msg.SenderID, limit, window)
			if err != nil {
				log.Warn("rate limit check failed, passing message through", slog.Any("error", err))
				next(ctx, msg)
				return
			}

			if !result.Allowed {
				log.Info("message rate limited",
					slog.String("sender_id", msg.SenderID),
					slog.Time("reset_at", result.ResetAt),
				)
				if sender != nil && notice != "" {
					_ = sender.Send(ctx, msg.SenderID, channel.Reply{Text: notice})
				}
				return
			}

			next(ctx, msg)
		}
	}
}
