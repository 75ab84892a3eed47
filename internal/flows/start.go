package flows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kinoscout/movie-bot/internal/card"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/keyboard"
)

// startFlow is the root conversation: greeting, mode selection, and the
// plain find-a-movie branch (by title, by id, or random).
func (d *Deps) startFlow() *flow.Flow {
	return flow.New(FlowStart,
		d.startGreet,
		d.startChooseMode,
		d.startChooseSearchType,
		d.startExecuteSearch,
	).DeclareTransfers(FlowPick, FlowRating, FlowBest, FlowAdvanced, FlowSpellcheck)
}

// startGreet resets scratch state from any previous conversation and shows
// the main menu.
func (d *Deps) startGreet(c *flow.Context) (flow.Result, error) {
	c.Session().Reset(scratchKeys...)

	err := c.Reply(d.T.T("reply.greeting"),
		channel.WithOneTimeKeyboard(keyboard.MainMenu(d.T)))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) startChooseMode(c *flow.Context) (flow.Result, error) {
	switch c.Text() {
	case d.T.T("menu.pick"):
		return flow.TransferTo(FlowPick), nil
	case d.T.T("menu.rating"):
		return flow.TransferTo(FlowRating), nil
	case d.T.T("menu.best"):
		return flow.TransferTo(FlowBest), nil
	case d.T.T("menu.advanced"):
		return flow.TransferTo(FlowAdvanced), nil
	}

	// Any other input, including the find button, lands in the plain
	// search branch. The original bot behaved the same way.
	err := c.Reply(d.T.T("reply.choose_search_type"),
		channel.WithOneTimeKeyboard(keyboard.SearchTypes(d.T)))
	if err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) startChooseSearchType(c *flow.Context) (flow.Result, error) {
	searchType := c.Text()
	c.Session().Set(keySearchType, searchType)

	if searchType == d.T.T("search.random") {
		return d.randomMovie(c)
	}

	if err := c.Reply(d.T.T("reply.enter_query")); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) randomMovie(c *flow.Context) (flow.Result, error) {
	d.notifySearching(c)

	pick, err := d.Movies.GetRandom(c.Ctx())
	if err != nil {
		return flow.Stay(), err
	}
	movie, err := d.Movies.GetByID(c.Ctx(), pick.KinopoiskID)
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

func (d *Deps) startExecuteSearch(c *flow.Context) (flow.Result, error) {
	searchType, _ := c.Session().GetString(keySearchType)

	switch searchType {
	case d.T.T("search.by_title"):
		query, transfer := d.checkSpelling(c, FlowStart, 3)
		if transfer != nil {
			return *transfer, nil
		}
		return d.searchByTitle(c, query)

	case d.T.T("search.by_id"):
		return d.searchByID(c, c.Text())

	default:
		if err := c.Reply(d.T.T("reply.unsupported_action")); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	}
}

func (d *Deps) searchByTitle(c *flow.Context, query string) (flow.Result, error) {
	d.notifySearching(c)
	c.Session().Set(keyQuery, query)

	movies, err := d.Movies.SearchByKeyword(c.Ctx(), query)
	if err != nil {
		return flow.Stay(), err
	}
	if len(movies) == 0 {
		if err := d.replyNotFound(c); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	}

	opts := d.attachPoster(c, movies[0])
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s:\n%s", d.T.T("reply.movies_found"), card.List(d.T, movies))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}

func (d *Deps) searchByID(c *flow.Context, raw string) (flow.Result, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if err := c.Reply(d.T.T("reply.enter_numeric_id")); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}

	d.notifySearching(c)

	movie, err := d.Movies.GetByID(c.Ctx(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if err := d.replyNotFound(c); err != nil {
				return flow.Stay(), err
			}
			return flow.Leave(), nil
		}
		return flow.Stay(), err
	}

	opts := d.attachPoster(c, movie)
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s\n%s", d.T.T("reply.found_abstract"), card.Verbose(d.T, movie))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}
