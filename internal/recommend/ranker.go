// Package recommend turns a handful of user-named favorite titles plus
// optional genre and rating preferences into a short ranked list.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/kinoscout/movie-bot/internal/domain"
)

const (
	defaultSimilarLimit = 10
	defaultResultLimit  = 5

	// detailFetchWorkers caps concurrent detail fetches so the pacer's
	// per-call delay still spreads load on the upstream.
	detailFetchWorkers = 2
)

// MovieClient is the slice of the movie database the ranker needs.
type MovieClient interface {
	SearchByKeyword(ctx context.Context, keyword string) ([]domain.Movie, error)
	GetByID(ctx context.Context, id int) (domain.Movie, error)
	GetSimilar(ctx context.Context, id int) ([]domain.Movie, error)
}

// Preferences narrows the candidate list after expansion from the seed.
type Preferences struct {
	// Genres holds lowercase genre names. Empty means no genre filter.
	Genres []string
	// MinRating is the minimum Kinopoisk or IMDB rating. Zero means no
	// rating filter.
	MinRating float64
}

// Ranker produces recommendations from one randomly chosen seed title.
type Ranker struct {
	client       MovieClient
	pacer        Pacer
	log          *slog.Logger
	similarLimit int
	resultLimit  int
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithSimilarLimit caps how many similar titles are expanded from the seed.
func WithSimilarLimit(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.similarLimit = n
		}
	}
}

// WithResultLimit caps the size of the returned shortlist.
func WithResultLimit(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.resultLimit = n
		}
	}
}

// NewRanker builds a Ranker.
func NewRanker(client MovieClient, pacer Pacer, log *slog.Logger, opts ...Option) *Ranker {
	if log == nil {
		log = slog.Default()
	}
	if pacer == nil {
		pacer = NewRandomPacer(0, 0)
	}

	r := &Ranker{
		client:       client,
		pacer:        pacer,
		log:          log,
		similarLimit: defaultSimilarLimit,
		resultLimit:  defaultResultLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Best picks one favorite name at random, resolves it to a seed title,
// expands to similar titles and filters them by the preferences. Returns
// domain.ErrNoSeed when the chosen name matches nothing upstream.
func (r *Ranker) Best(ctx context.Context, favoriteNames []string, prefs Preferences) ([]domain.Movie, error) {
	const op = "recommend.Best"

	if len(favoriteNames) == 0 {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNoSeed)
	}

	name := favoriteNames[rand.Intn(len(favoriteNames))]

	seed, err := r.resolveSeed(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.log.Debug("seed resolved",
		slog.String("name", name),
		slog.Int("movie_id", seed.KinopoiskID),
		slog.Int("vote_count", seed.RatingVoteCount),
	)

	candidates, err := r.expandSimilar(ctx, seed.KinopoiskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shortlist := r.filter(candidates, prefs)
	if len(shortlist) > r.resultLimit {
		shortlist = shortlist[:r.resultLimit]
	}
	return shortlist, nil
}

// resolveSeed maps a user-supplied name to the best-known matching title,
// preferring the one with the most votes.
func (r *Ranker) resolveSeed(ctx context.Context, name string) (domain.Movie, error) {
	matches, err := r.client.SearchByKeyword(ctx, name)
	if err != nil {
		return domain.Movie{}, err
	}
	if len(matches) == 0 {
		return domain.Movie{}, domain.ErrNoSeed
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.RatingVoteCount > best.RatingVoteCount {
			best = m
		}
	}
	return best, nil
}

// expandSimilar fetches full detail for every similar title, pacing each
// fetch. Candidates that fail to load are skipped rather than failing the
// whole recommendation.
func (r *Ranker) expandSimilar(ctx context.Context, seedID int) ([]domain.Movie, error) {
	similar, err := r.client.GetSimilar(ctx, seedID)
	if err != nil {
		return nil, err
	}
	if len(similar) > r.similarLimit {
		similar = similar[:r.similarLimit]
	}

	detailed := make([]*domain.Movie, len(similar))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFetchWorkers)

	for i, thin := range similar {
		g.Go(func() error {
			if err := r.pacer.Wait(gctx); err != nil {
				return err
			}

			movie, err := r.client.GetByID(gctx, thin.KinopoiskID)
			if err != nil {
				r.log.Warn("skipping candidate",
					slog.Int("movie_id", thin.KinopoiskID),
					slog.Any("error", err),
				)
				return nil
			}
			detailed[i] = &movie
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]domain.Movie, 0, len(detailed))
	for _, m := range detailed {
		if m != nil {
			candidates = append(candidates, *m)
		}
	}
	return candidates, nil
}

// filter picks the largest per-genre subset that also clears the rating
// bar. On a size tie the later genre wins, matching long-standing behavior.
// When every subset is empty the unfiltered candidates are returned.
func (r *Ranker) filter(candidates []domain.Movie, prefs Preferences) []domain.Movie {
	if len(prefs.Genres) == 0 {
		return candidates
	}

	var best []domain.Movie
	for _, genre := range prefs.Genres {
		var subset []domain.Movie
		for _, m := range candidates {
			if m.HasGenre(genre) && ratingMeets(m, prefs.MinRating) {
				subset = append(subset, m)
			}
		}
		if len(subset) >= len(best) && len(subset) > 0 {
			best = subset
		}
	}

	if len(best) == 0 {
		return candidates
	}
	return best
}

func ratingMeets(m domain.Movie, min float64) bool {
	if min <= 0 {
		return true
	}
	return m.RatingKinopoisk >= min || m.RatingImdb >= min
}
