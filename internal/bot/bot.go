// Package bot assembles the conversation machinery onto a messaging
// transport: flows and commands on the stage, middleware around dispatch,
// and the listen loop.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/flows"
	"github.com/kinoscout/movie-bot/internal/idempotency"
	"github.com/kinoscout/movie-bot/internal/middleware"
	"github.com/kinoscout/movie-bot/internal/ratelimit"
	"github.com/kinoscout/movie-bot/internal/session"
)

// Options carries the cross-cutting knobs around dispatch.
type Options struct {
	Deduper   idempotency.Deduper
	DedupeTTL time.Duration

	Limiter         ratelimit.Limiter
	RateLimit       int
	RateLimitWindow time.Duration
	RateLimitNotice string
}

// Bot binds the stage to a transport.
type Bot struct {
	ch      channel.Channel
	stage   *flow.Stage
	handler channel.Handler
	log     *slog.Logger
}

// New builds the bot: registers all flows and commands, validates the flow
// registry and wraps dispatch in the middleware chain.
func New(ch channel.Channel, store session.Store, deps *flows.Deps, errHandler *apperr.Handler, opts Options, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	stage := flow.NewStage(store, ch, errHandler, log)
	if err := flows.Register(stage, deps); err != nil {
		return nil, err
	}
	if err := stage.Validate(); err != nil {
		return nil, err
	}

	dispatch := func(ctx context.Context, msg channel.Message) {
		_ = stage.Dispatch(ctx, msg)
	}

	handler := middleware.Chain(dispatch,
		middleware.Recovery(log, errHandler, ch),
		middleware.Logging(log),
		middleware.Dedupe(opts.Deduper, opts.DedupeTTL, log),
		middleware.RateLimit(opts.Limiter, opts.RateLimit, opts.RateLimitWindow, opts.RateLimitNotice, ch, log),
	)

	return &Bot{ch: ch, stage: stage, handler: handler, log: log}, nil
}

// Stage exposes the dispatcher for integrations such as session metrics.
func (b *Bot) Stage() *flow.Stage {
	return b.stage
}

// Run serves inbound messages until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot started")
	return b.ch.Listen(ctx, b.handler)
}
