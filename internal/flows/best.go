package flows

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kinoscout/movie-bot/internal/card"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/input"
	"github.com/kinoscout/movie-bot/internal/keyboard"
	"github.com/kinoscout/movie-bot/internal/recommend"
)

// bestFlow collects favorite titles, optional favorite genres and a rating
// floor, then asks the recommender for a shortlist. The top result is
// enriched with a podcast episode link when one exists.
func (d *Deps) bestFlow() *flow.Flow {
	return flow.New(FlowBest,
		d.bestAskMovies,
		d.bestAskGenres,
		d.bestAskRating,
		d.bestExecute,
	)
}

func (d *Deps) bestAskMovies(c *flow.Context) (flow.Result, error) {
	if err := c.Reply(d.T.T("reply.enter_favorite_movies")); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) bestAskGenres(c *flow.Context) (flow.Result, error) {
	names, err := input.ParseCommaSeparated(c.Text())
	if err != nil {
		if err := c.Reply(d.T.T("reply.bad_comma_list")); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}
	c.Session().Set(keyFavoriteMovies, names)

	err = c.Reply(d.T.T("reply.enter_favorite_genres"),
		channel.WithOneTimeKeyboard([][]string{{d.T.T("button.skip")}}))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) bestAskRating(c *flow.Context) (flow.Result, error) {
	if c.Text() != d.T.T("button.skip") {
		genres, err := input.ParseCommaSeparated(c.Text())
		if err != nil {
			if err := c.Reply(d.T.T("reply.bad_comma_list")); err != nil {
				return flow.Stay(), err
			}
			return flow.Stay(), nil
		}
		for i, g := range genres {
			genres[i] = strings.ToLower(g)
		}
		c.Session().Set(keyFavoriteGenres, genres)
	}

	err := c.Reply(d.T.T("reply.choose_min_rating"),
		channel.WithOneTimeKeyboard(keyboard.Ratings()))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) bestExecute(c *flow.Context) (flow.Result, error) {
	minRating, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil || minRating < 1 || minRating > 10 {
		if err := c.Reply(d.T.T("reply.choose_min_rating"),
			channel.WithOneTimeKeyboard(keyboard.Ratings())); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}

	sess := c.Session()
	names, _ := sess.GetStrings(keyFavoriteMovies)
	genres, _ := sess.GetStrings(keyFavoriteGenres)

	d.notifySearching(c)

	shortlist, err := d.Ranker.Best(c.Ctx(), names, recommend.Preferences{
		Genres:    genres,
		MinRating: float64(minRating),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoSeed) {
			if err := d.replyNotFound(c); err != nil {
				return flow.Stay(), err
			}
			return flow.Leave(), nil
		}
		return flow.Stay(), err
	}
	if len(shortlist) == 0 {
		if err := d.replyNotFound(c); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	}

	text := fmt.Sprintf("%s:\n%s", d.T.T("reply.best_found"), card.List(d.T, shortlist))
	if episode := d.findEpisode(c, shortlist[0]); episode != "" {
		text += fmt.Sprintf("\n\n%s: %s", d.T.T("reply.podcast_episode"), episode)
	}

	opts := d.attachPoster(c, shortlist[0])
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}

// findEpisode is a non-critical enrichment: failures and misses are logged
// and the reply goes out without the link.
func (d *Deps) findEpisode(c *flow.Context, m domain.Movie) string {
	if d.Podcast == nil {
		return ""
	}

	episode, err := d.Podcast.FindEpisode(c.Ctx(), strings.ToLower(m.Title()))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.Log().Warn("podcast lookup failed", slog.Any("error", err))
		}
		return ""
	}
	return episode.URL()
}
