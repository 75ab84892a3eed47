package podcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		AccessToken: "token",
		Community:   "kinopodcast",
		Timeout:     2 * time.Second,
	}, nil)
	c.baseURL = srv.URL

	return c
}

func TestFindEpisode(t *testing.T) {
	var gotQuery map[string]string

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"domain":      q.Get("domain"),
			"query":       q.Get("query"),
			"owners_only": q.Get("owners_only"),
			"count":       q.Get("count"),
			"v":           q.Get("v"),
		}
		w.Write([]byte(`{"response":{"count":1,"items":[{"id":42,"owner_id":-123,"text":"Обсуждаем Матрицу"}]}}`))
	})

	episode, err := c.FindEpisode(context.Background(), "матрица")
	require.NoError(t, err)

	assert.Equal(t, -123, episode.OwnerID)
	assert.Equal(t, 42, episode.ID)
	assert.Equal(t, "Обсуждаем Матрицу", episode.Text)
	assert.Equal(t, "https://vk.com/wall-123_42", episode.URL())

	assert.Equal(t, map[string]string{
		"domain":      "kinopodcast",
		"query":       "матрица",
		"owners_only": "1",
		"count":       "1",
		"v":           "5.131",
	}, gotQuery)
}

func TestFindEpisode_NoMatch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"count":0,"items":[]}}`))
	})

	_, err := c.FindEpisode(context.Background(), "несуществующий фильм")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindEpisode_APIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`))
	})

	_, err := c.FindEpisode(context.Background(), "матрица")
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E300", appErr.Code)
	assert.Contains(t, appErr.Error(), "User authorization failed")
}

func TestFindEpisode_BadStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FindEpisode(context.Background(), "матрица")
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable)
}
