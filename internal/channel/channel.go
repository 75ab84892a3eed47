// Package channel abstracts the messaging transport: inbound user messages
// and outbound replies with optional keyboards and photo attachments. The
// conversation machinery depends only on the interfaces here; VK and
// Telegram adapters live in subpackages.
package channel

import "context"

// Message is one inbound user message.
type Message struct {
	// SenderID is the stable per-user identifier used as the session key.
	SenderID string
	// MessageID identifies the delivery, used for duplicate suppression.
	MessageID string
	Text      string
}

// Reply is one outbound message.
type Reply struct {
	Text string
	// Attachment is an opaque channel-specific reference (a VK photo id or
	// a plain image URL for Telegram). Empty means text only.
	Attachment string
	// Keyboard is rows of button labels; nil means no keyboard.
	Keyboard [][]string
	// OneTime hides the keyboard after the first press.
	OneTime bool
}

// ReplyOption decorates an outbound reply.
type ReplyOption func(*Reply)

// WithKeyboard attaches a reply keyboard.
func WithKeyboard(rows [][]string) ReplyOption {
	return func(r *Reply) {
		r.Keyboard = rows
	}
}

// WithOneTimeKeyboard attaches a keyboard hidden after first use.
func WithOneTimeKeyboard(rows [][]string) ReplyOption {
	return func(r *Reply) {
		r.Keyboard = rows
		r.OneTime = true
	}
}

// WithAttachment attaches a previously uploaded attachment reference.
func WithAttachment(ref string) ReplyOption {
	return func(r *Reply) {
		r.Attachment = ref
	}
}

// Sender delivers outbound replies. Implementations are stateless and safe
// for concurrent use across sessions.
type Sender interface {
	Send(ctx context.Context, recipientID string, reply Reply) error
}

// Handler consumes one inbound message.
type Handler func(ctx context.Context, msg Message)

// Listener produces inbound messages, invoking the handler once per message
// until the context is cancelled.
type Listener interface {
	Listen(ctx context.Context, handler Handler) error
}

// Channel is a full messaging transport.
type Channel interface {
	Sender
	Listener
}

// AttachmentUploader converts a remote image into a channel attachment
// reference. Failures must degrade to "no attachment", never fail a reply.
type AttachmentUploader interface {
	UploadFromURL(ctx context.Context, sourceURL, recipientID string) (string, error)
}
