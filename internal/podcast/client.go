// Package podcast finds the community podcast episode discussing a given
// title, via VK wall search.
package podcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/pkg/metrics"
)

const (
	wallSearchURL = "https://api.vk.com/method/wall.search"
	apiVersion    = "5.131"
)

// Config defines the community whose wall holds the podcast posts.
type Config struct {
	AccessToken string
	Community   string
	Timeout     time.Duration
}

// Client searches a community wall for podcast episodes.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a Client from config.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg:     cfg,
		baseURL: wallSearchURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FindEpisode looks up the first wall post mentioning the query. Returns
// domain.ErrNotFound when the wall has no matching post.
func (c *Client) FindEpisode(ctx context.Context, query string) (domain.Podcast, error) {
	const op = "podcast.FindEpisode"

	params := url.Values{}
	params.Set("domain", c.cfg.Community)
	params.Set("query", query)
	params.Set("owners_only", "1")
	params.Set("count", "1")
	params.Set("access_token", c.cfg.AccessToken)
	params.Set("v", apiVersion)

	start := time.Now()
	episode, err := c.search(ctx, op, params)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordUpstream("vk_wall", "wall_search", status, time.Since(start))

	return episode, err
}

func (c *Client) search(ctx context.Context, op string, params url.Values) (domain.Podcast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Podcast{}, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Podcast{}, apperr.NewUpstreamError("vk_wall", fmt.Errorf("%s: request failed: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Podcast{}, apperr.NewUpstreamError("vk_wall", fmt.Errorf("%s: bad status %d", op, resp.StatusCode))
	}

	var payload struct {
		Response struct {
			Count int `json:"count"`
			Items []struct {
				ID      int    `json:"id"`
				OwnerID int    `json:"owner_id"`
				Text    string `json:"text"`
			} `json:"items"`
		} `json:"response"`
		Error *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Podcast{}, apperr.NewUpstreamError("vk_wall", fmt.Errorf("%s: decode response: %w", op, err))
	}
	if payload.Error != nil {
		return domain.Podcast{}, apperr.NewUpstreamError("vk_wall", fmt.Errorf("%s: api error %d: %s", op, payload.Error.Code, payload.Error.Message))
	}
	if len(payload.Response.Items) == 0 {
		return domain.Podcast{}, domain.ErrNotFound
	}

	item := payload.Response.Items[0]
	return domain.Podcast{
		OwnerID: item.OwnerID,
		ID:      item.ID,
		Text:    item.Text,
	}, nil
}
