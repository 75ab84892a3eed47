// Package moviecache caches full movie records in Redis, cutting repeat
// detail fetches from the movie database.
package moviecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/kinoscout/movie-bot/internal/domain"
)

const defaultTTL = 12 * time.Hour

// Fetcher loads a movie record by id when the cache misses.
type Fetcher interface {
	GetByID(ctx context.Context, id int) (domain.Movie, error)
}

// Cache is a read-through movie cache. A nil Cache or nil Redis client
// degrades to calling the fetcher directly.
type Cache struct {
	client  *redis.Client
	fetcher Fetcher
	ttl     time.Duration
	log     *slog.Logger
}

// NewCache constructs a movie cache in front of the fetcher.
func NewCache(client *redis.Client, fetcher Fetcher, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{client: client, fetcher: fetcher, ttl: ttl, log: log}
}

// GetByID returns the movie, from cache when possible. Cache failures are
// logged and fall through to the fetcher.
func (c *Cache) GetByID(ctx context.Context, id int) (domain.Movie, error) {
	if cached, ok := c.lookup(ctx, id); ok {
		return cached, nil
	}

	movie, err := c.fetcher.GetByID(ctx, id)
	if err != nil {
		return domain.Movie{}, err
	}

	c.store(ctx, movie)
	return movie, nil
}

func (c *Cache) lookup(ctx context.Context, id int) (domain.Movie, bool) {
	if c == nil || c.client == nil {
		return domain.Movie{}, false
	}

	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("movie cache read failed", slog.Int("movie_id", id), slog.Any("error", err))
		}
		return domain.Movie{}, false
	}

	var movie domain.Movie
	if err := json.Unmarshal(data, &movie); err != nil {
		c.log.Warn("movie cache decode failed", slog.Int("movie_id", id), slog.Any("error", err))
		return domain.Movie{}, false
	}
	return movie, true
}

func (c *Cache) store(ctx context.Context, movie domain.Movie) {
	if c == nil || c.client == nil || movie.KinopoiskID == 0 {
		return
	}

	payload, err := json.Marshal(movie)
	if err != nil {
		c.log.Warn("movie cache encode failed", slog.Int("movie_id", movie.KinopoiskID), slog.Any("error", err))
		return
	}

	if err := c.client.Set(ctx, cacheKey(movie.KinopoiskID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("movie cache write failed", slog.Int("movie_id", movie.KinopoiskID), slog.Any("error", err))
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("movie:%d", id)
}
