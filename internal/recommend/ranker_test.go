package recommend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinoscout/movie-bot/internal/domain"
)

type fakeMovies struct {
	searchResults map[string][]domain.Movie
	similar       map[int][]domain.Movie
	details       map[int]domain.Movie
	detailErr     map[int]error
}

func (f *fakeMovies) SearchByKeyword(_ context.Context, keyword string) ([]domain.Movie, error) {
	return f.searchResults[keyword], nil
}

func (f *fakeMovies) GetByID(_ context.Context, id int) (domain.Movie, error) {
	if err := f.detailErr[id]; err != nil {
		return domain.Movie{}, err
	}
	if m, ok := f.details[id]; ok {
		return m, nil
	}
	return domain.Movie{}, domain.ErrNotFound
}

func (f *fakeMovies) GetSimilar(_ context.Context, id int) ([]domain.Movie, error) {
	return f.similar[id], nil
}

type instantPacer struct{}

func (instantPacer) Wait(context.Context) error { return nil }

func movie(id int, rating float64, genres ...string) domain.Movie {
	m := domain.Movie{KinopoiskID: id, NameRu: "m", RatingKinopoisk: rating}
	for _, g := range genres {
		m.Genres = append(m.Genres, domain.Genre{Genre: g})
	}
	return m
}

func testRanker(client MovieClient, opts ...Option) *Ranker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRanker(client, instantPacer{}, log, opts...)
}

func TestBest_FiltersByGenreAndRating(t *testing.T) {
	seed := movie(1, 8.0)
	seed.RatingVoteCount = 1000

	client := &fakeMovies{
		searchResults: map[string][]domain.Movie{"матрица": {seed}},
		similar: map[int][]domain.Movie{
			1: {movie(10, 0), movie(11, 0), movie(12, 0)},
		},
		details: map[int]domain.Movie{
			10: movie(10, 8.1, "фантастика"),
			11: movie(11, 5.0, "фантастика"),
			12: movie(12, 7.5, "драма"),
		},
	}

	got, err := testRanker(client).Best(context.Background(), []string{"матрица"}, Preferences{
		Genres:    []string{"фантастика"},
		MinRating: 7,
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].KinopoiskID)
}

func TestBest_SeedPrefersMostVotedMatch(t *testing.T) {
	obscure := movie(1, 6.0)
	obscure.RatingVoteCount = 3
	famous := movie(2, 8.0)
	famous.RatingVoteCount = 50000

	client := &fakeMovies{
		searchResults: map[string][]domain.Movie{"матрица": {obscure, famous}},
		similar:       map[int][]domain.Movie{2: {movie(20, 0)}},
		details:       map[int]domain.Movie{20: movie(20, 7.0, "боевик")},
	}

	got, err := testRanker(client).Best(context.Background(), []string{"матрица"}, Preferences{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].KinopoiskID)
}

func TestBest_NoSeedMatch(t *testing.T) {
	client := &fakeMovies{searchResults: map[string][]domain.Movie{}}

	_, err := testRanker(client).Best(context.Background(), []string{"нет такого"}, Preferences{})

	assert.ErrorIs(t, err, domain.ErrNoSeed)
}

func TestBest_EmptyFavorites(t *testing.T) {
	_, err := testRanker(&fakeMovies{}).Best(context.Background(), nil, Preferences{})

	assert.ErrorIs(t, err, domain.ErrNoSeed)
}

func TestBest_FailedCandidatesAreSkipped(t *testing.T) {
	seed := movie(1, 8.0)

	client := &fakeMovies{
		searchResults: map[string][]domain.Movie{"матрица": {seed}},
		similar:       map[int][]domain.Movie{1: {movie(10, 0), movie(11, 0)}},
		details:       map[int]domain.Movie{11: movie(11, 7.0, "драма")},
		detailErr:     map[int]error{10: domain.ErrNotFound},
	}

	got, err := testRanker(client).Best(context.Background(), []string{"матрица"}, Preferences{})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].KinopoiskID)
}

func TestBest_TruncatesToResultLimit(t *testing.T) {
	seed := movie(1, 8.0)
	similar := make([]domain.Movie, 0, 4)
	details := make(map[int]domain.Movie, 4)
	for id := 10; id < 14; id++ {
		similar = append(similar, movie(id, 0))
		details[id] = movie(id, 7.0, "драма")
	}

	client := &fakeMovies{
		searchResults: map[string][]domain.Movie{"матрица": {seed}},
		similar:       map[int][]domain.Movie{1: similar},
		details:       details,
	}

	got, err := testRanker(client, WithResultLimit(2)).Best(context.Background(), []string{"матрица"}, Preferences{})

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilter_LaterGenreWinsSizeTie(t *testing.T) {
	r := testRanker(&fakeMovies{})
	candidates := []domain.Movie{
		movie(1, 7.0, "драма"),
		movie(2, 7.0, "комедия"),
	}

	got := r.filter(candidates, Preferences{Genres: []string{"драма", "комедия"}})

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].KinopoiskID)
}

func TestFilter_FallsBackToUnfilteredWhenAllSubsetsEmpty(t *testing.T) {
	r := testRanker(&fakeMovies{})
	candidates := []domain.Movie{movie(1, 7.0, "драма")}

	got := r.filter(candidates, Preferences{Genres: []string{"вестерн"}})

	assert.Equal(t, candidates, got)
}

func TestFilter_KeepsOrderWithinWinningSubset(t *testing.T) {
	r := testRanker(&fakeMovies{})
	candidates := []domain.Movie{
		movie(1, 7.0, "драма"),
		movie(2, 7.0, "комедия"),
		movie(3, 7.0, "драма"),
	}

	got := r.filter(candidates, Preferences{Genres: []string{"драма"}})

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].KinopoiskID)
	assert.Equal(t, 3, got[1].KinopoiskID)
}
