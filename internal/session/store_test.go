package session

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, testLogger(), time.Hour)
}

func TestMemoryStore_GetCreatesOnFirstAccess(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "42", sess.UserID)
	assert.Nil(t, sess.Position)

	again, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Same(t, sess, again)
}

func TestMemoryStore_SweepEvictsIdleSessions(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	var evicted []string
	store.OnEvict(func(userID string) { evicted = append(evicted, userID) })

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, []string{"42"}, evicted)

	fresh, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.NotSame(t, sess, fresh)
}

func TestMemoryStore_FlowCounts(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	a, _ := store.Get(ctx, "1")
	a.Position = &Position{Flow: "pick", Step: 1}
	require.NoError(t, store.Save(ctx, a))

	b, _ := store.Get(ctx, "2")
	b.Position = &Position{Flow: "pick", Step: 0}
	require.NoError(t, store.Save(ctx, b))

	c, _ := store.Get(ctx, "3")
	require.NoError(t, store.Save(ctx, c))

	counts, err := store.FlowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["pick"])
	assert.Equal(t, 1, counts[""])
}

func TestRedisStore_RoundTripsValuesAndPosition(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)

	sess.Position = &Position{Flow: "advanced", Step: 3}
	sess.Set("query", "матрица")
	sess.Set("rating", 7)
	sess.Set("checked", true)
	sess.Set("genres", []string{"драма", "комедия"})
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, "42")
	require.NoError(t, err)

	require.NotNil(t, loaded.Position)
	assert.Equal(t, "advanced", loaded.Position.Flow)
	assert.Equal(t, 3, loaded.Position.Step)

	query, ok := loaded.GetString("query")
	require.True(t, ok)
	assert.Equal(t, "матрица", query)

	rating, ok := loaded.GetInt("rating")
	require.True(t, ok)
	assert.Equal(t, 7, rating)

	assert.True(t, loaded.GetBool("checked"))

	genres, ok := loaded.GetStrings("genres")
	require.True(t, ok)
	assert.Equal(t, []string{"драма", "комедия"}, genres)
}

func TestRedisStore_MovieRoundTripKeepsDirectors(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)

	movies := []domain.Movie{{
		KinopoiskID: 301,
		NameRu:      "Матрица",
		Year:        1999,
		Directors:   []domain.Person{{NameEn: "Lana Wachowski"}},
	}}
	sess.Set("candidates", movies)
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, "42")
	require.NoError(t, err)

	got, ok := loaded.GetMovies("candidates")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, 301, got[0].KinopoiskID)
	require.Len(t, got[0].Directors, 1)
	assert.Equal(t, "Lana Wachowski", got[0].Directors[0].Name())
}

func TestRedisStore_Delete(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)
	sess.Position = &Position{Flow: "pick", Step: 1}
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.Delete(ctx, "42"))

	loaded, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, loaded.Position)
}

func TestSession_ResetClearsOnlyGivenKeys(t *testing.T) {
	sess := New("42")
	sess.Set("a", "1")
	sess.Set("b", "2")

	sess.Reset("a")

	_, ok := sess.Get("a")
	assert.False(t, ok)
	b, ok := sess.GetString("b")
	require.True(t, ok)
	assert.Equal(t, "2", b)
}
