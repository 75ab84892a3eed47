package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/session"
	"github.com/kinoscout/movie-bot/pkg/metrics"
)

// maxTransferHops bounds synchronous transfer chains within one dispatch so
// a misconfigured flow cycle cannot spin forever. The source flows chain at
// most two transfers per message.
const maxTransferHops = 3

// Command maps a literal inbound text token to a flow entry point.
type Command struct {
	Target ID
	Step   int
	// AllowInFlow honors the command even while the session is inside a
	// flow, short-circuiting the current step (the restart command set).
	AllowInFlow bool
}

// Stage owns the flow registry, tracks which flow and step every session
// occupies, and routes each inbound message to the correct handler.
type Stage struct {
	flows    map[ID]*Flow
	commands map[string]Command

	store      session.Store
	sender     channel.Sender
	locks      *session.Locks
	errHandler *apperr.Handler
	log        *slog.Logger
}

// NewStage builds an empty stage.
func NewStage(store session.Store, sender channel.Sender, errHandler *apperr.Handler, log *slog.Logger) *Stage {
	if log == nil {
		log = slog.Default()
	}

	return &Stage{
		flows:      make(map[ID]*Flow),
		commands:   make(map[string]Command),
		store:      store,
		sender:     sender,
		locks:      session.NewLocks(),
		errHandler: errHandler,
		log:        log,
	}
}

// Register adds a flow to the registry.
func (s *Stage) Register(f *Flow) error {
	if f == nil || f.id == "" {
		return fmt.Errorf("register flow: empty id")
	}
	if _, exists := s.flows[f.id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFlow, f.id)
	}

	s.flows[f.id] = f
	return nil
}

// RegisterCommand binds a literal token to a flow entry point. The token is
// registered both as given and lowercased, mirroring how the original bot
// accepts either case of its button labels.
func (s *Stage) RegisterCommand(token string, cmd Command) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	s.commands[token] = cmd
	s.commands[strings.ToLower(token)] = cmd
}

// Validate checks the registry is closed: every command target and every
// declared transfer target must exist with a valid entry step. Call after
// all registrations, before serving traffic.
func (s *Stage) Validate() error {
	for token, cmd := range s.commands {
		target, ok := s.flows[cmd.Target]
		if !ok {
			return fmt.Errorf("%w: command %q targets %q", ErrUnknownFlow, token, cmd.Target)
		}
		if cmd.Step < 0 || cmd.Step >= target.Len() {
			return fmt.Errorf("%w: command %q enters %q at step %d", ErrStepOverflow, token, cmd.Target, cmd.Step)
		}
	}

	for _, f := range s.flows {
		for _, target := range f.transfers {
			if _, ok := s.flows[target]; !ok {
				return fmt.Errorf("%w: flow %q declares transfer to %q", ErrUnknownFlow, f.id, target)
			}
		}
	}

	return nil
}

// Dispatch routes one inbound message. Exactly one step handler runs unless
// a handler requests a transfer, in which case the target step is invoked
// synchronously within the same call. Dispatches for the same session are
// serialized; a failed dispatch never partially applies a directive.
func (s *Stage) Dispatch(ctx context.Context, msg channel.Message) error {
	if msg.SenderID == "" {
		s.log.Warn("cannot dispatch without sender id")
		return nil
	}

	unlock := s.locks.Lock(msg.SenderID)
	defer unlock()

	sess, err := s.store.Get(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	start := time.Now()
	entryFlow := ""
	if sess.Position != nil {
		entryFlow = sess.Position.Flow
	}

	pos, ok := s.entryPosition(sess, msg.Text)
	if !ok {
		// Unmatched message outside any flow: dropped silently.
		s.log.Debug("ignoring message outside any flow",
			slog.String("user_id", msg.SenderID), slog.String("text", msg.Text))
		metrics.RecordDispatch(entryFlow, "ignored", time.Since(start))
		return nil
	}

	finalPos, dispatchErr := s.run(ctx, sess, msg, pos)
	if dispatchErr != nil {
		// The directive that failed is not applied, yet scratch values
		// written by completed hops stay: the session is persisted at its
		// last consistent position.
		s.reportFailure(ctx, msg, dispatchErr)
		if err := s.store.Save(ctx, sess); err != nil {
			s.log.Error("failed to save session after dispatch error", slog.Any("error", err))
		}
		metrics.RecordDispatch(entryFlow, "error", time.Since(start))
		return nil
	}

	sess.Position = finalPos
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	metrics.RecordDispatch(entryFlow, "ok", time.Since(start))
	return nil
}

// FlowCounts proxies the session store for metrics sampling.
func (s *Stage) FlowCounts(ctx context.Context) (map[string]int, error) {
	return s.store.FlowCounts(ctx)
}

// ReleaseLock drops the per-user dispatch lock. Wired to session eviction
// so the lock map does not grow with every user ever seen.
func (s *Stage) ReleaseLock(userID string) {
	s.locks.Release(userID)
}

// entryPosition resolves where this message should be handled: a matching
// global command wins when the session is outside any flow (or the command
// is honored mid-flow); otherwise the session's current position is used.
func (s *Stage) entryPosition(sess *session.Session, text string) (session.Position, bool) {
	cmd, isCommand := s.matchCommand(text)

	switch {
	case isCommand && (sess.Position == nil || cmd.AllowInFlow):
		return session.Position{Flow: string(cmd.Target), Step: cmd.Step}, true
	case sess.Position != nil:
		return *sess.Position, true
	default:
		return session.Position{}, false
	}
}

func (s *Stage) matchCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if cmd, ok := s.commands[text]; ok {
		return cmd, true
	}
	cmd, ok := s.commands[strings.ToLower(text)]
	return cmd, ok
}

// run executes the step at pos and applies directives, chaining synchronous
// transfers up to maxTransferHops. It returns the final position without
// mutating the session's stored position; the caller applies it atomically.
func (s *Stage) run(ctx context.Context, sess *session.Session, msg channel.Message, pos session.Position) (*session.Position, error) {
	current := &pos

	for hop := 0; ; hop++ {
		f, ok := s.flows[ID(current.Flow)]
		if !ok {
			return nil, apperr.NewFlowError(fmt.Sprintf("dispatch into unregistered flow %q (user %s)", current.Flow, sess.UserID))
		}

		step, err := f.step(current.Step)
		if err != nil {
			return nil, apperr.NewFlowError(fmt.Sprintf("flow %q step %d (user %s): %v", current.Flow, current.Step, sess.UserID, err))
		}

		c := &Context{
			ctx:    ctx,
			sess:   sess,
			msg:    msg,
			sender: s.sender,
			log: s.log.With(
				slog.String("user_id", sess.UserID),
				slog.String("flow", current.Flow),
				slog.Int("step", current.Step),
			),
		}

		result, err := step(c)
		if err != nil {
			return nil, err
		}

		switch result.kind {
		case directiveStay:
			return current, nil

		case directiveAdvance:
			if current.Step+1 >= f.Len() {
				return nil, apperr.NewFlowError(fmt.Sprintf("advance past last step of flow %q (user %s): %v", current.Flow, sess.UserID, ErrStepOverflow))
			}
			return &session.Position{Flow: current.Flow, Step: current.Step + 1}, nil

		case directiveLeave:
			return nil, nil

		case directiveTransfer:
			target, ok := s.flows[result.target]
			if !ok {
				return nil, apperr.NewFlowError(fmt.Sprintf("transfer to unregistered flow %q from %q (user %s): %v", result.target, current.Flow, sess.UserID, ErrUnknownFlow))
			}
			if result.step < 0 || result.step >= target.Len() {
				return nil, apperr.NewFlowError(fmt.Sprintf("transfer to flow %q step %d (user %s): %v", result.target, result.step, sess.UserID, ErrStepOverflow))
			}
			if hop+1 > maxTransferHops {
				return nil, apperr.NewFlowError(fmt.Sprintf("dispatch for user %s exceeded %d transfers: %v", sess.UserID, maxTransferHops, ErrTransferChain))
			}

			metrics.RecordTransfer(current.Flow, string(result.target))
			current = &session.Position{Flow: string(result.target), Step: result.step}
			if result.override {
				msg.Text = result.text
			}

		default:
			return nil, apperr.NewFlowError(fmt.Sprintf("malformed directive %d from flow %q (user %s)", result.kind, current.Flow, sess.UserID))
		}
	}
}

// reportFailure logs the error and delivers the defined fallback reply so
// every dispatch path terminates in a message, never a raw error.
func (s *Stage) reportFailure(ctx context.Context, msg channel.Message, err error) {
	userMsg := "Произошла ошибка. Попробуйте позже"
	if s.errHandler != nil {
		if m, _ := s.errHandler.Handle(ctx, err); m != "" {
			userMsg = m
		}
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) && appErr != nil {
		metrics.RecordError(appErr.Code, string(appErr.Severity))
	} else {
		metrics.RecordError("unknown", string(apperr.SeverityHigh))
	}

	if sendErr := s.sender.Send(ctx, msg.SenderID, channel.Reply{Text: userMsg}); sendErr != nil {
		s.log.Error("failed to deliver fallback reply",
			slog.String("user_id", msg.SenderID), slog.Any("error", sendErr))
	}
}
