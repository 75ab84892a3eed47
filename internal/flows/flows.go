// Package flows defines the bot's conversations: the main menu, the four
// search modes and the spell-check confirmation detour.
package flows

import (
	"context"
	"log/slog"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/i18n"
	"github.com/kinoscout/movie-bot/internal/kinopoisk"
	"github.com/kinoscout/movie-bot/internal/recommend"

	"github.com/kinoscout/movie-bot/internal/catalog"
	"github.com/kinoscout/movie-bot/internal/domain"
)

// Flow names. The set is closed; the stage validates every transfer target
// against it at startup.
const (
	FlowStart      flow.ID = "start"
	FlowPick       flow.ID = "pick"
	FlowRating     flow.ID = "rating"
	FlowBest       flow.ID = "best"
	FlowAdvanced   flow.ID = "advanced"
	FlowSpellcheck flow.ID = "spellcheck"
)

// Session keys. Scratch state is namespaced per concern and reset when the
// user re-enters the root flow.
const (
	keyQuery      = "query"
	keySearchType = "movieSearchType"

	keyPickGenre  = "pickGenre"
	keyPickType   = "pickType"
	keyPickRating = "pickRating"

	keyFavoriteMovies = "favoriteMovies"
	keyFavoriteGenres = "favoriteGenres"
	keyMinRating      = "minRating"

	keyCandidates    = "candidates"
	keyTactics       = "tactics"
	keyTacticCurrent = "tacticCurrent"
	keyYearPivot     = "yearPivot"

	keySpellChecked    = "spellChecked"
	keySpellFix        = "spellFix"
	keySpellRaw        = "spellRaw"
	keySpellReturnFlow = "spellReturnFlow"
	keySpellReturnStep = "spellReturnStep"
)

// scratchKeys is everything cleared on a restart.
var scratchKeys = []string{
	keyQuery, keySearchType,
	keyPickGenre, keyPickType, keyPickRating,
	keyFavoriteMovies, keyFavoriteGenres, keyMinRating,
	keyCandidates, keyTactics, keyTacticCurrent, keyYearPivot,
	keySpellChecked, keySpellFix, keySpellRaw, keySpellReturnFlow, keySpellReturnStep,
}

// MovieClient is the slice of the movie database the flows need.
type MovieClient interface {
	SearchByKeyword(ctx context.Context, keyword string) ([]domain.Movie, error)
	SearchByFilters(ctx context.Context, f kinopoisk.Filters) ([]domain.Movie, error)
	GetByID(ctx context.Context, id int) (domain.Movie, error)
	GetRandom(ctx context.Context) (domain.Movie, error)
}

// StaffClient resolves directors for the advanced-search director tactic.
type StaffClient interface {
	DirectorsByMovieID(ctx context.Context, movieID int) ([]domain.Person, error)
}

// PodcastClient finds the community episode discussing a title. Optional;
// nil disables the enrichment.
type PodcastClient interface {
	FindEpisode(ctx context.Context, query string) (domain.Podcast, error)
}

// Recommender produces the best-movie shortlist.
type Recommender interface {
	Best(ctx context.Context, favoriteNames []string, prefs recommend.Preferences) ([]domain.Movie, error)
}

// Deps carries every collaborator the flows use. Uploader and Podcast may
// be nil; replies then degrade to text without the extra content.
type Deps struct {
	Movies     MovieClient
	Staff      StaffClient
	Podcast    PodcastClient
	Ranker     Recommender
	Uploader   channel.AttachmentUploader
	Catalog    *catalog.Catalog
	Dictionary []string
	T          i18n.Translator
	Log        *slog.Logger
}

// Register adds all flows and global commands to the stage. The caller
// runs stage.Validate afterwards.
func Register(stage *flow.Stage, d *Deps) error {
	if d.Log == nil {
		d.Log = slog.Default()
	}

	all := []*flow.Flow{
		d.startFlow(),
		d.pickFlow(),
		d.ratingFlow(),
		d.bestFlow(),
		d.advancedFlow(),
		d.spellcheckFlow(),
	}
	for _, f := range all {
		if err := stage.Register(f); err != nil {
			return err
		}
	}

	start := flow.Command{Target: FlowStart, AllowInFlow: true}
	stage.RegisterCommand("start", start)
	stage.RegisterCommand("/start", start)
	stage.RegisterCommand(d.T.T("command.start"), start)
	stage.RegisterCommand(d.T.T("button.restart"), start)
	stage.RegisterCommand(d.T.T("button.more"), flow.Command{Target: FlowStart})
	stage.RegisterCommand(d.T.T("menu.rating"), flow.Command{Target: FlowRating})

	return nil
}
