// Package kinopoisk is the HTTP client for the movie database API: keyword
// and filtered search, title lookup, random pick, similar titles, and staff.
package kinopoisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/pkg/metrics"
)

// Config defines connection parameters for the movie database API.
type Config struct {
	// BaseURL points at the v2.2 films endpoint,
	// e.g. https://kinopoiskapiunofficial.tech/api/v2.2/films
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the movie database. Safe for concurrent use across
// all sessions; the breaker sheds calls while the upstream is down.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *apperr.CircuitBreaker
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
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		breaker: apperr.NewCircuitBreaker(),
		log:     log,
	}
}

// SearchByKeyword finds titles matching the keyword. The keyword search
// lives on the older v2.1 surface of the API.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string) ([]domain.Movie, error) {
	legacyBase := strings.Replace(c.baseURL, "2.2", "2.1", 1)
	endpoint := fmt.Sprintf("%s/search-by-keyword?keyword=%s", legacyBase, url.QueryEscape(keyword))

	var payload struct {
		Films []searchMovie `json:"films"`
	}
	if err := c.doRequest(ctx, "search_by_keyword", endpoint, &payload); err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(payload.Films))
	for _, f := range payload.Films {
		movies = append(movies, f.toDomain())
	}
	return movies, nil
}

// Filters narrows a catalog search.
type Filters struct {
	GenreID    int
	MovieType  string
	RatingFrom int
	RatingTo   int
}

// SearchByFilters finds titles matching the facet filters.
func (c *Client) SearchByFilters(ctx context.Context, f Filters) ([]domain.Movie, error) {
	query := url.Values{}
	if f.GenreID > 0 {
		query.Set("genres", strconv.Itoa(f.GenreID))
	}
	if f.MovieType != "" {
		query.Set("type", f.MovieType)
	}
	if f.RatingFrom > 0 {
		query.Set("ratingFrom", strconv.Itoa(f.RatingFrom))
	}
	if f.RatingTo > 0 {
		query.Set("ratingTo", strconv.Itoa(f.RatingTo))
	}

	endpoint := c.baseURL
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var payload struct {
		Items []domain.Movie `json:"items"`
	}
	if err := c.doRequest(ctx, "search_by_filters", endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetByID fetches the full record of one title. Returns domain.ErrNotFound
// when the upstream reports no match.
func (c *Client) GetByID(ctx context.Context, id int) (domain.Movie, error) {
	endpoint := fmt.Sprintf("%s/%d", c.baseURL, id)

	var movie domain.Movie
	if err := c.doRequest(ctx, "get_by_id", endpoint, &movie); err != nil {
		return domain.Movie{}, err
	}
	if movie.KinopoiskID == 0 {
		return domain.Movie{}, domain.ErrNotFound
	}
	return movie, nil
}

// GetRandom picks one title at random from the top list.
func (c *Client) GetRandom(ctx context.Context) (domain.Movie, error) {
	endpoint := c.baseURL + "/top"

	var payload struct {
		Films []searchMovie `json:"films"`
	}
	if err := c.doRequest(ctx, "get_random", endpoint, &payload); err != nil {
		return domain.Movie{}, err
	}
	if len(payload.Films) == 0 {
		return domain.Movie{}, domain.ErrNotFound
	}

	pick := payload.Films[rand.Intn(len(payload.Films))]
	return pick.toDomain(), nil
}

// GetSimilar lists titles similar to the given one. The payload is thin;
// callers fetch details per candidate as needed.
func (c *Client) GetSimilar(ctx context.Context, id int) ([]domain.Movie, error) {
	endpoint := fmt.Sprintf("%s/%d/similars", c.baseURL, id)

	var payload struct {
		Items []searchMovie `json:"items"`
	}
	if err := c.doRequest(ctx, "get_similar", endpoint, &payload); err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(payload.Items))
	for _, f := range payload.Items {
		movies = append(movies, f.toDomain())
	}
	return movies, nil
}

// doRequest is the shared request path: retry with backoff around the
// breaker, which counts every attempt. ErrCircuitOpen is not retryable,
// so an open circuit fails fast. A 404 is a healthy upstream answer and
// must not trip the breaker, so it passes through as a success and is
// restored afterwards.
func (c *Client) doRequest(ctx context.Context, op, endpoint string, out any) error {
	start := time.Now()
	var notFound bool
	err := apperr.WithRetry(ctx, func() error {
		return c.breaker.Call(func() error {
			reqErr := c.do(ctx, endpoint, out)
			if errors.Is(reqErr, domain.ErrNotFound) {
				notFound = true
				return nil
			}
			notFound = false
			return reqErr
		})
	})
	if err == nil && notFound {
		err = domain.ErrNotFound
	}
	if errors.Is(err, apperr.ErrCircuitOpen) {
		err = apperr.NewUpstreamError("kinopoisk", err)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordUpstream("kinopoisk", op, status, time.Since(start))

	return err
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	const op = "kinopoisk.do"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Add("accept", "application/json")
	req.Header.Add("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.NewUpstreamError("kinopoisk", fmt.Errorf("%s: request failed: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperr.NewUpstreamError("kinopoisk", fmt.Errorf("%s: bad status %d, response: %s", op, resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.NewUpstreamError("kinopoisk", fmt.Errorf("%s: decode response: %w", op, err))
	}
	return nil
}

// searchMovie is the thin record shape the v2.1-era endpoints return: ids
// under filmId, numbers as strings.
type searchMovie struct {
	FilmID           int            `json:"filmId"`
	NameRu           string         `json:"nameRu"`
	NameEn           string         `json:"nameEn"`
	NameOriginal     string         `json:"nameOriginal"`
	Year             string         `json:"year"`
	Rating           string         `json:"rating"`
	RatingVoteCount  int            `json:"ratingVoteCount"`
	PosterURLPreview string         `json:"posterUrlPreview"`
	WebURL           string         `json:"webUrl"`
	Genres           []domain.Genre `json:"genres"`
}

func (m searchMovie) toDomain() domain.Movie {
	year, _ := strconv.Atoi(m.Year)
	rating, _ := strconv.ParseFloat(m.Rating, 64)

	return domain.Movie{
		KinopoiskID:      m.FilmID,
		NameRu:           m.NameRu,
		NameEn:           m.NameEn,
		NameOriginal:     m.NameOriginal,
		Year:             year,
		RatingKinopoisk:  rating,
		RatingVoteCount:  m.RatingVoteCount,
		PosterURLPreview: m.PosterURLPreview,
		WebURL:           m.WebURL,
		Genres:           m.Genres,
	}
}
