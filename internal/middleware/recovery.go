package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
)

// Recovery catches panics in the handler chain, reports them through the
// centralized error handler and notifies the user. A panic kills one
// dispatch, never the process.
func Recovery(log *slog.Logger, errHandler *apperr.Handler, sender channel.Sender) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next channel.Handler) channel.Handler {
		return func(ctx context.Context, msg channel.Message) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.Error("panic recovered in dispatch",
					slog.String("sender_id", msg.SenderID),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				userMsg := "Произошла ошибка. Попробуйте позже."
				if errHandler != nil {
					appErr := apperr.NewFlowError(fmt.Sprintf("panic recovered: %v", r))
					if m, _ := errHandler.Handle(ctx, appErr); m != "" {
						userMsg = m
					}
				}

				if sender != nil {
					if err := sender.Send(ctx, msg.SenderID, channel.Reply{Text: userMsg}); err != nil {
						log.Error("failed to notify user about panic", slog.Any("error", err))
					}
				}
			}()

			next(ctx, msg)
		}
	}
}
