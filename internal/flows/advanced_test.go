package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/session"
)

func namedMovie(id, year int, genres ...string) domain.Movie {
	m := domain.Movie{KinopoiskID: id, Year: year}
	for _, g := range genres {
		m.Genres = append(m.Genres, domain.Genre{Genre: g})
	}
	return m
}

func TestFilterMovies_KeepsOrder(t *testing.T) {
	movies := []domain.Movie{
		namedMovie(1, 1999, "драма"),
		namedMovie(2, 2005, "комедия"),
		namedMovie(3, 2010, "драма"),
	}

	got := filterMovies(movies, func(m domain.Movie) bool { return m.HasGenre("драма") })

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].KinopoiskID)
	assert.Equal(t, 3, got[1].KinopoiskID)
}

func TestFilterMovies_EmptyResult(t *testing.T) {
	movies := []domain.Movie{namedMovie(1, 1999, "драма")}

	got := filterMovies(movies, func(domain.Movie) bool { return false })

	assert.Empty(t, got)
}

func TestCandidateGenres_DeduplicatesAndSorts(t *testing.T) {
	movies := []domain.Movie{
		namedMovie(1, 1999, "фантастика", "боевик"),
		namedMovie(2, 2005, "боевик", "драма"),
	}

	got := candidateGenres(movies)

	assert.Equal(t, []string{"боевик", "драма", "фантастика"}, got)
}

func TestCandidateDirectors_SkipsUnnamed(t *testing.T) {
	movies := []domain.Movie{
		{KinopoiskID: 1, Directors: []domain.Person{{NameRu: "Нолан"}, {}}},
		{KinopoiskID: 2, Directors: []domain.Person{{NameRu: "Нолан"}, {NameEn: "Villeneuve"}}},
	}

	got := candidateDirectors(movies)

	assert.Equal(t, []string{"Villeneuve", "Нолан"}, got)
}

func TestMedianYear(t *testing.T) {
	movies := []domain.Movie{
		namedMovie(1, 2010),
		namedMovie(2, 1999),
		namedMovie(3, 0),
		namedMovie(4, 2020),
	}

	assert.Equal(t, 2010, medianYear(movies))
}

func TestMedianYear_DefaultsWithoutYears(t *testing.T) {
	assert.Equal(t, 2000, medianYear([]domain.Movie{namedMovie(1, 0)}))
}

func TestConsumeTactic(t *testing.T) {
	d := &Deps{}
	sess := session.New("42")
	sess.Set(keyTactics, []string{tacticGenre, tacticYear, tacticDirector})

	d.consumeTactic(sess, tacticYear)

	remaining, ok := sess.GetStrings(keyTactics)
	require.True(t, ok)
	assert.Equal(t, []string{tacticGenre, tacticDirector}, remaining)
}

func TestConsumeTactic_AfterJSONRoundTrip(t *testing.T) {
	d := &Deps{}
	sess := session.New("42")
	// A redis-backed session hands the list back as []any.
	sess.Set(keyTactics, []any{tacticGenre, tacticYear})

	d.consumeTactic(sess, tacticGenre)

	remaining, ok := sess.GetStrings(keyTactics)
	require.True(t, ok)
	assert.Equal(t, []string{tacticYear}, remaining)
}
