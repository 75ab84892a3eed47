// Package middleware wraps the inbound message handler with the cross
// cutting concerns: panic recovery, duplicate suppression, per-user rate
// limiting and request logging.
package middleware

import "github.com/kinoscout/movie-bot/internal/channel"

// Middleware decorates a message handler.
type Middleware func(next channel.Handler) channel.Handler

// Chain applies middlewares so the first listed runs outermost.
func Chain(h channel.Handler, mws ...Middleware) channel.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
