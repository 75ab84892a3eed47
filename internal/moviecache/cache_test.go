package moviecache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinoscout/movie-bot/internal/domain"
)

type countingFetcher struct {
	calls int
	movie domain.Movie
	err   error
}

func (f *countingFetcher) GetByID(context.Context, int) (domain.Movie, error) {
	f.calls++
	if f.err != nil {
		return domain.Movie{}, f.err
	}
	return f.movie, nil
}

func setupCache(t *testing.T, fetcher Fetcher) *Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCache(client, fetcher, time.Hour, log)
}

func TestGetByID_SecondHitServedFromCache(t *testing.T) {
	fetcher := &countingFetcher{movie: domain.Movie{KinopoiskID: 301, NameRu: "Матрица"}}
	cache := setupCache(t, fetcher)
	ctx := context.Background()

	first, err := cache.GetByID(ctx, 301)
	require.NoError(t, err)

	second, err := cache.GetByID(ctx, 301)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetByID_FetchErrorIsNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: domain.ErrNotFound}
	cache := setupCache(t, fetcher)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, 301)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = cache.GetByID(ctx, 301)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetByID_NilCacheDegradesToFetcher(t *testing.T) {
	fetcher := &countingFetcher{movie: domain.Movie{KinopoiskID: 301}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := NewCache(nil, fetcher, time.Hour, log)

	movie, err := cache.GetByID(context.Background(), 301)

	require.NoError(t, err)
	assert.Equal(t, 301, movie.KinopoiskID)
	assert.Equal(t, 1, fetcher.calls)
}
