package flows

import (
	"fmt"

	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/flow"
	"github.com/kinoscout/movie-bot/internal/keyboard"
)

// spellcheckFlow is the confirmation detour: it offers the proposed fix
// and resumes the interrupted step with whichever text the user chose.
func (d *Deps) spellcheckFlow() *flow.Flow {
	return flow.New(FlowSpellcheck,
		d.spellAskConfirm,
		d.spellResume,
	).DeclareTransfers(FlowStart, FlowRating, FlowAdvanced)
}

func (d *Deps) spellAskConfirm(c *flow.Context) (flow.Result, error) {
	fix, _ := c.Session().GetString(keySpellFix)

	text := fmt.Sprintf(d.T.T("reply.did_you_mean"), fix)
	if err := c.Reply(text, channel.WithOneTimeKeyboard(keyboard.YesNo(d.T))); err != nil {
		return flow.Stay(), err
	}
	return flow.Advance(), nil
}

func (d *Deps) spellResume(c *flow.Context) (flow.Result, error) {
	sess := c.Session()

	fix, _ := sess.GetString(keySpellFix)
	raw, _ := sess.GetString(keySpellRaw)
	returnFlow, _ := sess.GetString(keySpellReturnFlow)
	returnStep, _ := sess.GetInt(keySpellReturnStep)

	query := raw
	if c.Text() == d.T.T("button.yes") {
		query = fix
	}

	sess.Reset(keySpellFix, keySpellRaw, keySpellReturnFlow, keySpellReturnStep)
	sess.Set(keySpellChecked, true)

	return flow.Resume(flow.ID(returnFlow), returnStep, query), nil
}
