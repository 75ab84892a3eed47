package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Secrets this bot handles: channel access tokens, the Kinopoisk API key,
// the VK webhook confirmation and secret strings, and the Sentry DSN.
var maskedKeys = map[string]struct{}{
	"token":        {},
	"access_token": {},
	"api_key":      {},
	"x-api-key":    {},
	"password":     {},
	"secret":       {},
	"confirmation": {},
	"dsn":          {},
}

const maskedValue = "***"

// MaskingHandler replaces secret attribute values before the record
// reaches any sink, including group members.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler wraps next with secret masking.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = maskAttr(attr)
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		masked := make([]any, 0, len(members))
		for _, member := range members {
			masked = append(masked, maskAttr(member))
		}
		return slog.Group(attr.Key, masked...)
	}

	if _, ok := maskedKeys[strings.ToLower(attr.Key)]; ok {
		attr.Value = slog.StringValue(maskedValue)
	}
	return attr
}
