// Package vk is the VK Callback API transport: webhook listener,
// messages.send sender and photo attachment upload.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/pkg/metrics"
)

const methodBaseURL = "https://api.vk.com/method/"

// Config defines the VK community the bot runs as.
type Config struct {
	Token        string
	Confirmation string
	// Secret, when set, must match the secret VK attaches to every
	// callback event; mismatching events are rejected.
	Secret     string
	GroupID    int64
	APIVersion string
	// Addr and WebhookPath define where the callback server listens.
	Addr        string
	WebhookPath string
}

// Client is the VK transport. Implements channel.Channel and
// channel.AttachmentUploader.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

var (
	_ channel.Channel            = (*Client)(nil)
	_ channel.AttachmentUploader = (*Client)(nil)
)

// New builds a VK client from config.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "5.131"
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log,
	}
}

// Send delivers a reply via messages.send.
func (c *Client) Send(ctx context.Context, recipientID string, reply channel.Reply) error {
	params := url.Values{}
	params.Set("user_id", recipientID)
	params.Set("message", reply.Text)
	params.Set("random_id", fmt.Sprintf("%d", rand.Int31()))

	if reply.Attachment != "" {
		params.Set("attachment", reply.Attachment)
	}
	if reply.Keyboard != nil {
		kb, err := marshalKeyboard(reply.Keyboard, reply.OneTime)
		if err != nil {
			return fmt.Errorf("vk: encode keyboard: %w", err)
		}
		params.Set("keyboard", kb)
	}

	var messageID int
	return c.call(ctx, "messages.send", params, &messageID)
}

// call invokes one VK API method and decodes the response envelope into out.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", c.cfg.Token)
	params.Set("v", c.cfg.APIVersion)

	start := time.Now()
	err := c.doCall(ctx, method, params, out)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordUpstream("vk", method, status, time.Since(start))

	return err
}

func (c *Client) doCall(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, methodBaseURL+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("vk: create request for %s: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.NewUpstreamError("vk", fmt.Errorf("%s failed: %w", method, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.NewUpstreamError("vk", fmt.Errorf("%s: bad status %d", method, resp.StatusCode))
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperr.NewUpstreamError("vk", fmt.Errorf("%s: decode response: %w", method, err))
	}
	if envelope.Error != nil {
		return apperr.NewUpstreamError("vk", fmt.Errorf("%s: api error %d: %s", method, envelope.Error.Code, envelope.Error.Message))
	}

	if out != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return apperr.NewUpstreamError("vk", fmt.Errorf("%s: decode payload: %w", method, err))
		}
	}
	return nil
}
