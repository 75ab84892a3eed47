package flows

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kinoscout/movie-bot/internal/card"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/keyboard"
	"github.com/kinoscout/movie-bot/internal/session"
)

// Tactic names as stored in the session. Labels shown to the user come
// from the locale table.
const (
	tacticGenre    = "genre"
	tacticYear     = "year"
	tacticDirector = "director"
)

const advancedResultLimit = 5

// advancedFlow searches by keyword and then narrows the candidate set with
// user-chosen tactics until one title remains or the tactics run out. Each
// facet application only removes candidates.
func (d *Deps) advancedFlow() *flow.Flow {
	return flow.New(FlowAdvanced,
		d.advancedAskQuery,
		d.advancedReceiveQuery,
		d.advancedPromptTactic,
		d.advancedReceiveTactic,
		d.advancedApplyFacet,
	).DeclareTransfers(FlowSpellcheck)
}

func (d *Deps) advancedAskQuery(c *flow.Context) (flow.Result, error) {
	if err := c.Reply(d.T.T("reply.enter_query")); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) advancedReceiveQuery(c *flow.Context) (flow.Result, error) {
	query, transfer := d.checkSpelling(c, FlowAdvanced, 1)
	if transfer != nil {
		return *transfer, nil
	}

	d.notifySearching(c)

	candidates, err := d.Movies.SearchByKeyword(c.Ctx(), query)
	if err != nil {
		return flow.Stay(), err
	}

	switch len(candidates) {
	case 0:
		if err := d.replyNotFound(c); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	case 1:
		return d.advancedShowSingle(c, candidates[0])
	}

	sess := c.Session()
	sess.Set(keyCandidates, candidates)
	sess.Set(keyTactics, []string{tacticGenre, tacticYear, tacticDirector})

	// Reposition onto the tactic prompt; its handler ignores message text.
	return flow.Resume(FlowAdvanced, 2, ""), nil
}

// advancedPromptTactic lists the remaining narrowing tactics. Invoked both
// on entry to the loop and after every applied facet.
func (d *Deps) advancedPromptTactic(c *flow.Context) (flow.Result, error) {
	remaining, _ := c.Session().GetStrings(keyTactics)

	labels := make([]string, 0, len(remaining))
	for _, tactic := range remaining {
		labels = append(labels, d.tacticLabel(tactic))
	}
	c.Log().Debug("tactics remaining", slog.Any("tactics", remaining))

	rows := keyboard.Rows(labels, 2)
	rows = append(rows, []string{d.T.T("tactic.done")})

	candidates, _ := c.Session().GetMovies(keyCandidates)
	text := fmt.Sprintf(d.T.T("reply.choose_tactic"), len(candidates))

	if err := c.Reply(text, channel.WithOneTimeKeyboard(rows)); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) advancedReceiveTactic(c *flow.Context) (flow.Result, error) {
	sess := c.Session()
	remaining, _ := sess.GetStrings(keyTactics)

	if c.Text() == d.T.T("tactic.done") || len(remaining) == 0 {
		return d.advancedShowResults(c)
	}

	tactic, ok := d.matchTactic(c.Text(), remaining)
	if !ok {
		if err := c.Reply(d.T.T("reply.unknown_tactic")); err != nil {
			return flow.Stay(), err
		}
		return flow.Stay(), nil
	}
	sess.Set(keyTacticCurrent, tactic)

	candidates, _ := sess.GetMovies(keyCandidates)

	switch tactic {
	case tacticGenre:
		labels := candidateGenres(candidates)
		err := c.Reply(d.T.T("reply.choose_genre"),
			channel.WithOneTimeKeyboard(keyboard.Rows(labels, 2)))
		if err != nil {
			return flow.Stay(), err
		}

	case tacticYear:
		pivot := medianYear(candidates)
		sess.Set(keyYearPivot, pivot)

		rows := [][]string{{
			fmt.Sprintf(d.T.T("tactic.year_before"), pivot),
			fmt.Sprintf(d.T.T("tactic.year_from"), pivot),
		}}
		err := c.Reply(d.T.T("reply.choose_year_half"), channel.WithOneTimeKeyboard(rows))
		if err != nil {
			return flow.Stay(), err
		}

	case tacticDirector:
		enriched := d.enrichDirectors(c, candidates)
		sess.Set(keyCandidates, enriched)

		labels := candidateDirectors(enriched)
		if len(labels) == 0 {
			if err := c.Reply(d.T.T("reply.no_directors")); err != nil {
				return flow.Stay(), err
			}
			d.consumeTactic(sess, tactic)
			return flow.Resume(FlowAdvanced, 2, ""), nil
		}
		err := c.Reply(d.T.T("reply.choose_director"),
			channel.WithOneTimeKeyboard(keyboard.Rows(labels, 1)))
		if err != nil {
			return flow.Stay(), err
		}
	}

	return flow.Advance(), nil
}

func (d *Deps) advancedApplyFacet(c *flow.Context) (flow.Result, error) {
	sess := c.Session()
	tactic, _ := sess.GetString(keyTacticCurrent)
	candidates, _ := sess.GetMovies(keyCandidates)

	var filtered []domain.Movie
	switch tactic {
	case tacticGenre:
		needle := strings.ToLower(strings.TrimSpace(c.Text()))
		filtered = filterMovies(candidates, func(m domain.Movie) bool {
			return m.HasGenre(needle)
		})

	case tacticYear:
		pivot, _ := sess.GetInt(keyYearPivot)
		before := c.Text() == fmt.Sprintf(d.T.T("tactic.year_before"), pivot)
		filtered = filterMovies(candidates, func(m domain.Movie) bool {
			if before {
				return m.Year < pivot
			}
			return m.Year >= pivot
		})

	case tacticDirector:
		needle := strings.TrimSpace(c.Text())
		filtered = filterMovies(candidates, func(m domain.Movie) bool {
			for _, p := range m.Directors {
				if p.Name() == needle {
					return true
				}
			}
			return false
		})

	default:
		return flow.Stay(), fmt.Errorf("advanced: unknown tactic %q", tactic)
	}

	d.consumeTactic(sess, tactic)

	if len(filtered) == 0 {
		// The facet eliminated everything; keep the previous set so the
		// remaining tactics still have something to narrow.
		if err := c.Reply(d.T.T("reply.facet_empty")); err != nil {
			return flow.Stay(), err
		}
	} else {
		sess.Set(keyCandidates, filtered)
		candidates = filtered
	}

	if len(candidates) == 1 {
		return d.advancedShowSingle(c, candidates[0])
	}

	remaining, _ := sess.GetStrings(keyTactics)
	if len(remaining) == 0 {
		return d.advancedShowResults(c)
	}
	return flow.Resume(FlowAdvanced, 2, ""), nil
}

func (d *Deps) advancedShowSingle(c *flow.Context, thin domain.Movie) (flow.Result, error) {
	movie, err := d.Movies.GetByID(c.Ctx(), thin.KinopoiskID)
	if err != nil {
		return flow.Stay(), err
	}
	movie.Directors = thin.Directors

	opts := d.attachPoster(c, movie)
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s\n%s", d.T.T("reply.found_movie"), card.Verbose(d.T, movie))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}

func (d *Deps) advancedShowResults(c *flow.Context) (flow.Result, error) {
	candidates, _ := c.Session().GetMovies(keyCandidates)
	if len(candidates) == 0 {
		if err := d.replyNotFound(c); err != nil {
			return flow.Stay(), err
		}
		return flow.Leave(), nil
	}
	if len(candidates) > advancedResultLimit {
		candidates = candidates[:advancedResultLimit]
	}

	opts := d.attachPoster(c, candidates[0])
	opts = append(opts, channel.WithKeyboard(d.afterSearchKeyboard()))

	text := fmt.Sprintf("%s:\n%s", d.T.T("reply.movies_found"), card.List(d.T, candidates))
	if err := c.Reply(text, opts...); err != nil {
		return flow.Stay(), err
	}
	return flow.Leave(), nil
}

// enrichDirectors annotates each candidate with its directors. Lookup
// failures leave the candidate unannotated rather than failing the flow.
func (d *Deps) enrichDirectors(c *flow.Context, candidates []domain.Movie) []domain.Movie {
	for i := range candidates {
		if len(candidates[i].Directors) > 0 {
			continue
		}
		directors, err := d.Staff.DirectorsByMovieID(c.Ctx(), candidates[i].KinopoiskID)
		if err != nil {
			c.Log().Warn("director lookup failed",
				slog.Int("movie_id", candidates[i].KinopoiskID),
				slog.Any("error", err),
			)
			continue
		}
		candidates[i].Directors = directors
	}
	return candidates
}

func (d *Deps) tacticLabel(tactic string) string {
	switch tactic {
	case tacticGenre:
		return d.T.T("tactic.genre")
	case tacticYear:
		return d.T.T("tactic.year")
	case tacticDirector:
		return d.T.T("tactic.director")
	}
	return tactic
}

func (d *Deps) matchTactic(label string, remaining []string) (string, bool) {
	for _, tactic := range remaining {
		if strings.EqualFold(label, d.tacticLabel(tactic)) {
			return tactic, true
		}
	}
	return "", false
}

func (d *Deps) consumeTactic(sess *session.Session, tactic string) {
	remaining, _ := sess.GetStrings(keyTactics)
	kept := remaining[:0]
	for _, t := range remaining {
		if t != tactic {
			kept = append(kept, t)
		}
	}
	sess.Set(keyTactics, kept)
}

func filterMovies(movies []domain.Movie, keep func(domain.Movie) bool) []domain.Movie {
	var out []domain.Movie
	for _, m := range movies {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func candidateGenres(movies []domain.Movie) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, m := range movies {
		for _, g := range m.Genres {
			if _, ok := seen[g.Genre]; ok {
				continue
			}
			seen[g.Genre] = struct{}{}
			labels = append(labels, g.Genre)
		}
	}
	sort.Strings(labels)
	return labels
}

func candidateDirectors(movies []domain.Movie) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, m := range movies {
		for _, p := range m.Directors {
			name := p.Name()
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			labels = append(labels, name)
		}
	}
	sort.Strings(labels)
	return labels
}

func medianYear(movies []domain.Movie) int {
	years := make([]int, 0, len(movies))
	for _, m := range movies {
		if m.Year > 0 {
			years = append(years, m.Year)
		}
	}
	if len(years) == 0 {
		return 2000
	}
	sort.Ints(years)
	return years[len(years)/2]
}
