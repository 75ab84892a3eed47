package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/pkg/logger"
)

// callbackEvent is the envelope VK posts to the webhook.
type callbackEvent struct {
	Type    string          `json:"type"`
	GroupID int             `json:"group_id"`
	Secret  string          `json:"secret"`
	Object  json.RawMessage `json:"object"`
}

type messageNew struct {
	Message struct {
		ID     int    `json:"id"`
		FromID int    `json:"from_id"`
		PeerID int    `json:"peer_id"`
		Text   string `json:"text"`
	} `json:"message"`
}

// Listen runs the Callback API webhook server until the context is
// cancelled. Each message_new event is dispatched on its own goroutine;
// the HTTP response is always the bare "ok" VK expects, sent immediately
// so slow handlers do not trigger redelivery storms.
func (c *Client) Listen(ctx context.Context, handler channel.Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+c.cfg.WebhookPath, func(w http.ResponseWriter, r *http.Request) {
		c.handleEvent(w, r, handler)
	})

	server := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	c.log.Info("vk webhook listening",
		slog.String("addr", c.cfg.Addr),
		slog.String("path", c.cfg.WebhookPath),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (c *Client) handleEvent(w http.ResponseWriter, r *http.Request, handler channel.Handler) {
	var event callbackEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		c.log.Warn("malformed callback payload", slog.Any("error", err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if c.cfg.Secret != "" && event.Secret != c.cfg.Secret {
		c.log.Warn("callback secret mismatch", slog.String("type", event.Type))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	switch event.Type {
	case "confirmation":
		fmt.Fprint(w, c.cfg.Confirmation)
		return

	case "message_new":
		var payload messageNew
		if err := json.Unmarshal(event.Object, &payload); err != nil {
			c.log.Warn("malformed message_new object", slog.Any("error", err))
			break
		}

		msg := channel.Message{
			SenderID:  strconv.Itoa(payload.Message.FromID),
			MessageID: strconv.Itoa(payload.Message.ID),
			Text:      payload.Message.Text,
		}

		go handler(logger.WithCorrelationID(context.Background()), msg)
	}

	// VK retries the delivery unless it sees this exact body.
	fmt.Fprint(w, "ok")
}
