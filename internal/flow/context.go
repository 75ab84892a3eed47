package flow

import (
	"context"
	"log/slog"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/session"
)

// Context carries everything a step handler may touch during one dispatch.
// It is built per invocation and must not be retained.
type Context struct {
	ctx    context.Context
	sess   *session.Session
	msg    channel.Message
	sender channel.Sender
	log    *slog.Logger
}

// Ctx returns the request context for external calls.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Session returns the dispatching user's session. The stage serializes
// access, so the handler owns it for the duration of the call.
func (c *Context) Session() *session.Session {
	return c.sess
}

// Message returns the inbound message being dispatched. During a resumed
// transfer the text is the override supplied by the transferring step.
func (c *Context) Message() channel.Message {
	return c.msg
}

// Text is shorthand for the inbound message text.
func (c *Context) Text() string {
	return c.msg.Text
}

// Log returns a logger annotated with the session identity.
func (c *Context) Log() *slog.Logger {
	return c.log
}

// Reply sends an outbound message to the dispatching user.
func (c *Context) Reply(text string, opts ...channel.ReplyOption) error {
	reply := channel.Reply{Text: text}
	for _, opt := range opts {
		opt(&reply)
	}

	if err := c.sender.Send(c.ctx, c.msg.SenderID, reply); err != nil {
		c.log.Error("failed to send reply", slog.Any("error", err))
		return err
	}
	return nil
}
