package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kinoscout/movie-bot/internal/domain"
)

// keyTranslator echoes keys back, so assertions read against stable ids
// instead of locale text.
type keyTranslator struct{}

func (keyTranslator) T(key string) string { return key }
func (keyTranslator) Lang() string        { return "ru" }

var matrix = domain.Movie{
	KinopoiskID:     301,
	NameRu:          "Матрица",
	Year:            1999,
	Genres:          []domain.Genre{{Genre: "фантастика"}, {Genre: "боевик"}},
	RatingKinopoisk: 8.5,
	RatingImdb:      8.7,
	WebURL:          "https://example.org/301",
}

func TestShort(t *testing.T) {
	got := Short(keyTranslator{}, matrix)

	assert.True(t, strings.HasPrefix(got, "Матрица\n"))
	assert.Contains(t, got, "card.kinopoisk: 8.5/10")
	assert.Contains(t, got, "card.imdb: 8.7/10")
}

func TestShort_MissingRating(t *testing.T) {
	m := matrix
	m.RatingImdb = 0

	got := Short(keyTranslator{}, m)

	assert.Contains(t, got, "card.imdb: card.no_rating")
}

func TestVerbose(t *testing.T) {
	got := Verbose(keyTranslator{}, matrix)

	assert.Contains(t, got, "card.title Матрица")
	assert.Contains(t, got, "card.released_in 1999")
	assert.Contains(t, got, "card.genres: фантастика, боевик")
	assert.Contains(t, got, "card.more_info: https://example.org/301")
	assert.NotContains(t, got, "card.directors")
}

func TestVerbose_WithDirectors(t *testing.T) {
	m := matrix
	m.Directors = []domain.Person{{NameRu: "Лана Вачовски"}, {NameEn: "Lilly Wachowski"}}

	got := Verbose(keyTranslator{}, m)

	assert.Contains(t, got, "card.directors: Лана Вачовски, Lilly Wachowski")
}

func TestList(t *testing.T) {
	second := matrix
	second.NameRu = ""
	second.NameEn = "The Matrix Reloaded"

	got := List(keyTranslator{}, []domain.Movie{matrix, second})

	assert.Contains(t, got, "1. Матрица")
	assert.Contains(t, got, "2. The Matrix Reloaded")
}

func TestList_Empty(t *testing.T) {
	assert.Empty(t, List(keyTranslator{}, nil))
}
