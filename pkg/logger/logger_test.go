package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsSentryFanout(t *testing.T) {
	log := New(Config{Level: "debug", Format: "json", SentryEnabled: true})

	require.NotNil(t, log)
	require.NotPanics(t, func() {
		log.Error("upstream failed", slog.String("api", "kinopoisk"))
	})
}

func TestNew_DefaultsToTextInfo(t *testing.T) {
	log := New(Config{})

	require.NotNil(t, log)
	assert.False(t, log.Enabled(nil, slog.LevelDebug))
	assert.True(t, log.Enabled(nil, slog.LevelInfo))
}

func TestMaskingHandler_MasksSecretAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("vk send", slog.String("token", "vk1.a.secret"), slog.String("user_id", "7"))

	out := buf.String()
	assert.Contains(t, out, `"token":"***"`)
	assert.NotContains(t, out, "vk1.a.secret")
	assert.Contains(t, out, `"user_id":"7"`)
}

func TestMaskingHandler_CaseInsensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("request", slog.String("X-API-KEY", "k-123"))

	assert.NotContains(t, buf.String(), "k-123")
}

func TestMaskingHandler_MasksGroupMembers(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("upstream call",
		slog.Group("kinopoisk", slog.String("api_key", "k-123"), slog.String("op", "get_by_id")))

	out := buf.String()
	assert.NotContains(t, out, "k-123")
	assert.Contains(t, out, `"op":"get_by_id"`)
}

func TestMaskingHandler_MasksBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil))).
		With(slog.String("access_token", "vk1.a.secret"))

	log.Info("listening")

	assert.NotContains(t, buf.String(), "vk1.a.secret")
}
