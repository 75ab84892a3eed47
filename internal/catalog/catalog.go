// Package catalog loads the static reference data the bot presents to
// users: selectable genres with their database ids, and title types.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Genre is one selectable genre with its movie database id.
type Genre struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// MovieType is one selectable title type: the label shown to users and
// the value the movie database expects.
type MovieType struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Catalog holds the loaded reference data. Lookups are case-insensitive.
type Catalog struct {
	genres []Genre
	types  []MovieType
}

// Load reads genres and movie types from the two YAML files.
func Load(genresPath, typesPath string) (*Catalog, error) {
	genres, err := loadGenres(genresPath)
	if err != nil {
		return nil, err
	}

	types, err := loadMovieTypes(typesPath)
	if err != nil {
		return nil, err
	}

	return &Catalog{genres: genres, types: types}, nil
}

// Genres returns the genres in file order.
func (c *Catalog) Genres() []Genre {
	return c.genres
}

// MovieTypes returns the title types in file order.
func (c *Catalog) MovieTypes() []MovieType {
	return c.types
}

// GenreNames returns the genre labels in file order.
func (c *Catalog) GenreNames() []string {
	names := make([]string, 0, len(c.genres))
	for _, g := range c.genres {
		names = append(names, g.Name)
	}
	return names
}

// MovieTypeNames returns the title type labels in file order.
func (c *Catalog) MovieTypeNames() []string {
	names := make([]string, 0, len(c.types))
	for _, t := range c.types {
		names = append(names, t.Name)
	}
	return names
}

// GenreByName resolves a user-entered genre name to its database id.
func (c *Catalog) GenreByName(name string) (Genre, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, g := range c.genres {
		if strings.ToLower(g.Name) == needle {
			return g, true
		}
	}
	return Genre{}, false
}

// MovieTypeByName resolves a user-entered type label to its API value.
func (c *Catalog) MovieTypeByName(name string) (MovieType, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range c.types {
		if strings.ToLower(t.Name) == needle {
			return t, true
		}
	}
	return MovieType{}, false
}

func loadGenres(path string) ([]Genre, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read genres %s: %w", path, err)
	}

	var payload struct {
		Genres []Genre `yaml:"genres"`
	}
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("catalog: parse genres %s: %w", path, err)
	}
	if len(payload.Genres) == 0 {
		return nil, fmt.Errorf("catalog: no genres in %s", path)
	}
	return payload.Genres, nil
}

func loadMovieTypes(path string) ([]MovieType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read movie types %s: %w", path, err)
	}

	var payload struct {
		Types []MovieType `yaml:"types"`
	}
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("catalog: parse movie types %s: %w", path, err)
	}
	if len(payload.Types) == 0 {
		return nil, fmt.Errorf("catalog: no movie types in %s", path)
	}
	return payload.Types, nil
}
