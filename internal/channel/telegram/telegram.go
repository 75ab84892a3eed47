// Package telegram is the Telegram transport, built on telebot long
// polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/pkg/logger"
)

// Config defines the Telegram bot credentials.
type Config struct {
	Token   string
	Timeout time.Duration
}

// Client is the Telegram transport. Implements channel.Channel and
// channel.AttachmentUploader.
type Client struct {
	bot *telebot.Bot
	log *slog.Logger
}

var (
	_ channel.Channel            = (*Client)(nil)
	_ channel.AttachmentUploader = (*Client)(nil)
)

// New builds a Telegram client from config.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return &Client{bot: tb, log: log}, nil
}

// Listen runs the long-poll loop until the context is cancelled.
func (c *Client) Listen(ctx context.Context, handler channel.Handler) error {
	c.bot.Handle(telebot.OnText, func(tc telebot.Context) error {
		if tc.Sender() == nil {
			return nil
		}

		msg := channel.Message{
			SenderID:  strconv.FormatInt(tc.Sender().ID, 10),
			MessageID: strconv.Itoa(tc.Message().ID),
			Text:      tc.Text(),
		}

		handler(logger.WithCorrelationID(context.Background()), msg)
		return nil
	})

	go func() {
		<-ctx.Done()
		c.bot.Stop()
	}()

	c.log.Info("telegram bot polling")
	c.bot.Start()
	return nil
}

// Send delivers a reply, with the attachment as a photo caption when set.
func (c *Client) Send(_ context.Context, recipientID string, reply channel.Reply) error {
	id, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad recipient id %q: %w", recipientID, err)
	}
	recipient := &telebot.User{ID: id}

	var opts []any
	if reply.Keyboard != nil {
		opts = append(opts, buildKeyboard(reply.Keyboard, reply.OneTime))
	}

	if reply.Attachment != "" {
		photo := &telebot.Photo{
			File:    telebot.FromURL(reply.Attachment),
			Caption: reply.Text,
		}
		if _, err := c.bot.Send(recipient, photo, opts...); err != nil {
			return apperr.NewUpstreamError("telegram", fmt.Errorf("send photo: %w", err))
		}
		return nil
	}

	if _, err := c.bot.Send(recipient, reply.Text, opts...); err != nil {
		return apperr.NewUpstreamError("telegram", fmt.Errorf("send message: %w", err))
	}
	return nil
}

// UploadFromURL is a no-op mapping: Telegram fetches photos by URL itself,
// so the source URL is the attachment reference.
func (c *Client) UploadFromURL(_ context.Context, sourceURL, _ string) (string, error) {
	return sourceURL, nil
}

func buildKeyboard(rows [][]string, oneTime bool) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: oneTime,
	}

	keyboard := make([][]telebot.ReplyButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telebot.ReplyButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, telebot.ReplyButton{Text: label})
		}
		keyboard = append(keyboard, buttons)
	}
	markup.ReplyKeyboard = keyboard

	return markup
}
