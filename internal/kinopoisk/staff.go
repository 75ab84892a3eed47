package kinopoisk

import (
	"context"
	"fmt"
	"strings"

	"github.com/kinoscout/movie-bot/internal/domain"
)

const professionDirector = "DIRECTOR"

// DirectorsByMovieID returns the directors credited on a title. The staff
// endpoint lives on the v1 surface of the API.
func (c *Client) DirectorsByMovieID(ctx context.Context, movieID int) ([]domain.Person, error) {
	staffBase := strings.Replace(c.baseURL, "v2.2/films", "v1/staff", 1)
	endpoint := fmt.Sprintf("%s?filmId=%d", staffBase, movieID)

	var payload []struct {
		NameRu        string `json:"nameRu"`
		NameEn        string `json:"nameEn"`
		ProfessionKey string `json:"professionKey"`
	}
	if err := c.doRequest(ctx, "directors_by_movie_id", endpoint, &payload); err != nil {
		return nil, err
	}

	var directors []domain.Person
	for _, member := range payload {
		if member.ProfessionKey != professionDirector {
			continue
		}
		directors = append(directors, domain.Person{NameRu: member.NameRu, NameEn: member.NameEn})
	}
	return directors, nil
}
