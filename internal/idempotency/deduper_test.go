package idempotency

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
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("42", "1001")
	b := Key("42", "1001")
	c := Key("42", "1002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestRedisDeduper_SeenOnlyOnSecondDelivery(t *testing.T) {
	deduper := NewRedisDeduper(setupTestRedis(t), testLogger())
	ctx := context.Background()

	seen, err := deduper.Seen(ctx, Key("42", "1001"), time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = deduper.Seen(ctx, Key("42", "1001"), time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = deduper.Seen(ctx, Key("42", "1002"), time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDeduper(t *testing.T) {
	deduper := NewMemoryDeduper()
	ctx := context.Background()

	seen, err := deduper.Seen(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = deduper.Seen(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, seen)

	time.Sleep(60 * time.Millisecond)

	seen, err = deduper.Seen(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDeduper_Sweep(t *testing.T) {
	deduper := NewMemoryDeduper()
	ctx := context.Background()

	_, err := deduper.Seen(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	deduper.Sweep()

	seen, err := deduper.Seen(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}
