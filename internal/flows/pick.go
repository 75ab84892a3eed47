package flows

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kinoscout/movie-bot/internal/card"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/keyboard"
	"github.com/kinoscout/movie-bot/internal/kinopoisk"
)

// pickFlow narrows a filtered catalog search: genre, title type, then an
// exact rating, and shows the first match in full.
func (d *Deps) pickFlow() *flow.Flow {
	return flow.New(FlowPick,
		d.pickAskGenre,
		d.pickAskType,
		d.pickAskRating,
		d.pickExecute,
	)
}

func (d *Deps) pickAskGenre(c *flow.Context) (flow.Result, error) {
	err := c.Reply(d.T.T("reply.choose_genre"),
		channel.WithOneTimeKeyboard(d.genreKeyboard()))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) pickAskType(c *flow.Context) (flow.Result, error) {
	if _, ok := d.Catalog.GenreByName(c.Text()); !ok {
		if err := c.Reply(d.T.T("reply.unknown_genre"),
			channel.WithOneTimeKeyboard(d.genreKeyboard())); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}
	c.Session().Set(keyPickGenre, c.Text())

	err := c.Reply(d.T.T("reply.choose_type"),
		channel.WithOneTimeKeyboard(keyboard.Rows(d.Catalog.MovieTypeNames(), 1)))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) pickAskRating(c *flow.Context) (flow.Result, error) {
	if _, ok := d.Catalog.MovieTypeByName(c.Text()); !ok {
		if err := c.Reply(d.T.T("reply.unknown_type"),
			channel.WithOneTimeKeyboard(keyboard.Rows(d.Catalog.MovieTypeNames(), 1))); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}
	c.Session().Set(keyPickType, c.Text())

	err := c.Reply(d.T.T("reply.choose_rating"),
		channel.WithOneTimeKeyboard(keyboard.Ratings()))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) pickExecute(c *flow.Context) (flow.Result, error) {
	rating, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil || rating < 1 || rating > 10 {
		if err := c.Reply(d.T.T("reply.choose_rating"),
			channel.WithOneTimeKeyboard(keyboard.Ratings())); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}

	sess := c.Session()
	genreName, _ := sess.GetString(keyPickGenre)
	typeName, _ := sess.GetString(keyPickType)

	genre, _ := d.Catalog.GenreByName(genreName)
	movieType, _ := d.Catalog.MovieTypeByName(typeName)

	d.notifySearching(c)

	movies, err := d.Movies.SearchByFilters(c.Ctx(), kinopoisk.Filters{
		GenreID:    genre.ID,
		MovieType:  movieType.Value,
		RatingFrom: rating,
		RatingTo:   rating,
	})
	if err != nil {
		return flow.Stay(), err
	}
	if len(movies) == 0 {
		if err := d.replyNotFound(c); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	}

	movie, err := d.Movies.GetByID(c.Ctx(), movies[0].KinopoiskID)
	if err != nil {
		return flow.Stay(), err
	}

	opts := d.attachPoster(c, movie)
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s\n%s", d.T.T("reply.found_movie"), card.Verbose(d.T, movie))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}
