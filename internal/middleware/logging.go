package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/pkg/logger"
)

// Logging records every inbound message and its handling time.
func Logging(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next channel.Handler) channel.Handler {
		return func(ctx context.Context, msg channel.Message) {
			start := time.Now()

			log.Info("message received",
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.String("sender_id", msg.SenderID),
				slog.Int("text_len", len(msg.Text)),
			)

			next(ctx, msg)

			log.Debug("message handled",
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.String("sender_id", msg.SenderID),
				slog.Duration("took", time.Since(start)),
			)
		}
	}
}
