package flows

import (
	"fmt"

	"github.com/kinoscout/movie-bot/internal/card"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/flow"
)

// ratingFlow answers "what is this movie rated": one query, the top match's
// ratings in short form.
func (d *Deps) ratingFlow() *flow.Flow {
	return flow.New(FlowRating,
		d.ratingAskQuery,
		d.ratingExecute,
	).DeclareTransfers(FlowSpellcheck)
}

func (d *Deps) ratingAskQuery(c *flow.Context) (flow.Result, error) {
	if err := c.Reply(d.T.T("reply.enter_query")); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) ratingExecute(c *flow.Context) (flow.Result, error) {
	query, transfer := d.checkSpelling(c, FlowRating, 1)
	if transfer != nil {
		return *transfer, nil
	}
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

	movie := movies[0]

	opts := d.attachPoster(c, movie)
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s\n%s", d.T.T("reply.found_rating"), card.Short(d.T, movie))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}
