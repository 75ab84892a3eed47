// Package card renders movie records as chat-friendly text blocks.
package card

import (
	"fmt"
	"strings"

	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/i18n"
)

// indent is a braille blank, the only whitespace VK does not collapse.
const indent = "⠀"

// Short renders the title with its two ratings.
func Short(t i18n.Translator, m domain.Movie) string {
	return fmt.Sprintf("%s\n%s%s\n%s%s",
		m.Title(),
		indent, kinopoiskRating(t, m),
		indent, imdbRating(t, m),
	)
}

// Verbose renders the full card: title, ratings, year, genres and a link.
func Verbose(t i18n.Translator, m domain.Movie) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", t.T("card.title"), m.Title())
	b.WriteString(kinopoiskRating(t, m))
	b.WriteByte('\n')
	b.WriteString(imdbRating(t, m))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s %d\n", t.T("card.released_in"), m.Year)
	fmt.Fprintf(&b, "%s: %s\n", t.T("card.genres"), strings.Join(m.GenreNames(), ", "))

	if len(m.Directors) > 0 {
		names := make([]string, 0, len(m.Directors))
		for _, d := range m.Directors {
			names = append(names, d.Name())
		}
		fmt.Fprintf(&b, "%s: %s\n", t.T("card.directors"), strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "%s: %s", t.T("card.more_info"), m.WebURL)
	return b.String()
}

// List renders numbered short cards, one per line group.
func List(t i18n.Translator, movies []domain.Movie) string {
	lines := make([]string, 0, len(movies))
	for i, m := range movies {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, Short(t, m)))
	}
	return strings.Join(lines, "\n")
}

func kinopoiskRating(t i18n.Translator, m domain.Movie) string {
	return ratingLine(t, t.T("card.kinopoisk"), m.RatingKinopoisk)
}

func imdbRating(t i18n.Translator, m domain.Movie) string {
	return ratingLine(t, t.T("card.imdb"), m.RatingImdb)
}

func ratingLine(t i18n.Translator, label string, rating float64) string {
	if rating == 0 {
		return fmt.Sprintf("%s: %s", label, t.T("card.no_rating"))
	}
	return fmt.Sprintf("%s: %.1f/10", label, rating)
}
