package flows

import (
	"log/slog"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/keyboard"
	"github.com/kinoscout/movie-bot/internal/spellcheck"
)

// afterSearchKeyboard is offered under every search result.
func (d *Deps) afterSearchKeyboard() [][]string {
	return [][]string{
		{d.T.T("button.more")},
		{d.T.T("menu.rating")},
	}
}

// replyNotFound reports an empty result with the recovery keyboard.
func (d *Deps) replyNotFound(c *flow.Context) error {
	return c.Reply(d.T.T("reply.no_results"), channel.WithKeyboard(d.afterSearchKeyboard()))
}

// notifySearching warns the user a slow upstream search has started.
func (d *Deps) notifySearching(c *flow.Context) {
	_ = c.Reply(d.T.T("reply.searching"))
}

// attachPoster uploads the movie poster and returns the reply option for
// it. Upload failures degrade to a text-only reply.
func (d *Deps) attachPoster(c *flow.Context, m domain.Movie) []channel.ReplyOption {
	if d.Uploader == nil || m.PosterURLPreview == "" {
		return nil
	}

	ref, err := d.Uploader.UploadFromURL(c.Ctx(), m.PosterURLPreview, c.Message().SenderID)
	if err != nil {
		c.Log().Warn("poster upload failed",
			slog.Int("movie_id", m.KinopoiskID),
			slog.Any("error", err),
		)
		return nil
	}
	return []channel.ReplyOption{channel.WithAttachment(ref)}
}

// checkSpelling validates the inbound query. When a correction is proposed
// it parks the raw and fixed variants in the session and returns a transfer
// into the confirmation flow; the confirmation resumes the calling step
// with the chosen text. A query already confirmed passes through once.
func (d *Deps) checkSpelling(c *flow.Context, current flow.ID, step int) (string, *flow.Result) {
	text := c.Text()

	sess := c.Session()
	if sess.GetBool(keySpellChecked) {
		sess.Reset(keySpellChecked)
		return text, nil
	}

	result := spellcheck.Check(text, d.Dictionary)
	if result.Valid {
		return text, nil
	}

	sess.Set(keySpellFix, result.Fix)
	sess.Set(keySpellRaw, text)
	sess.Set(keySpellReturnFlow, string(current))
	sess.Set(keySpellReturnStep, step)

	transfer := flow.TransferTo(FlowSpellcheck)
	return "", &transfer
}

// genreKeyboard offers the selectable genres, recovery row last.
func (d *Deps) genreKeyboard() [][]string {
	return keyboard.Rows(d.Catalog.GenreNames(), 2)
}
