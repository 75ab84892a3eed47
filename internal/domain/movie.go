// Package domain holds the entities exchanged with the movie database and
// the podcast community, as consumed by the conversation flows.
package domain

import (
	"fmt"
	"strings"
)

// Genre is a single genre tag as returned by the movie API.
type Genre struct {
	Genre string `json:"genre"`
}

// Movie is a title record from the movie database. Directors is not part
// of the upstream payload; it is attached during in-flow enrichment and
// serialized only so the annotation survives inside the owning session.
type Movie struct {
	KinopoiskID      int     `json:"kinopoiskId"`
	NameRu           string  `json:"nameRu"`
	NameEn           string  `json:"nameEn"`
	NameOriginal     string  `json:"nameOriginal"`
	Year             int     `json:"year"`
	Genres           []Genre `json:"genres"`
	RatingKinopoisk  float64 `json:"ratingKinopoisk"`
	RatingImdb       float64 `json:"ratingImdb"`
	RatingVoteCount  int     `json:"ratingVoteCount"`
	PosterURLPreview string  `json:"posterUrlPreview"`
	WebURL           string  `json:"webUrl"`
	Description      string  `json:"description,omitempty"`

	Directors []Person `json:"directors,omitempty"`
}

// Title returns the first non-empty name, preferring the Russian one.
func (m Movie) Title() string {
	switch {
	case m.NameRu != "":
		return m.NameRu
	case m.NameEn != "":
		return m.NameEn
	default:
		return m.NameOriginal
	}
}

// HasGenre reports whether the movie carries the given genre, ignoring case.
func (m Movie) HasGenre(name string) bool {
	for _, g := range m.Genres {
		if strings.EqualFold(g.Genre, name) {
			return true
		}
	}
	return false
}

// GenreNames returns the movie's genre labels in upstream order.
func (m Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Genre)
	}
	return names
}

// Person is a staff member attached to a movie.
type Person struct {
	NameRu string `json:"nameRu"`
	NameEn string `json:"nameEn"`
}

// Name returns the Russian name when present, otherwise the English one.
func (p Person) Name() string {
	if p.NameRu != "" {
		return p.NameRu
	}
	return p.NameEn
}

// Podcast is a community wall post matched against a movie title.
type Podcast struct {
	OwnerID int    `json:"owner_id"`
	ID      int    `json:"id"`
	Text    string `json:"text"`
}

// URL returns the public link to the wall post.
func (p Podcast) URL() string {
	return fmt.Sprintf("https://vk.com/wall%d_%d", p.OwnerID, p.ID)
}
