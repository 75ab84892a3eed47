// Package flow implements the conversation state machine: named flows made
// of ordered step handlers, and the stage that routes every inbound message
// to the right step while serializing access per session.
package flow

import "fmt"

// ID names a registered flow. The set of IDs is closed at startup; the
// stage validates every declared transfer target before serving traffic.
type ID string

// StepFunc is one handler within a flow, addressed by index. It mutates the
// session through the dispatch context and returns a control directive.
type StepFunc func(c *Context) (Result, error)

// Flow is one named, ordered conversation sequence. Immutable after
// registration.
type Flow struct {
	id        ID
	steps     []StepFunc
	transfers []ID
}

// New builds a flow from its ordered steps.
func New(id ID, steps ...StepFunc) *Flow {
	return &Flow{id: id, steps: steps}
}

// DeclareTransfers lists the flows this flow's handlers may transfer to.
// The stage checks the list at validation time so a misspelled target fails
// at startup instead of mid-conversation.
func (f *Flow) DeclareTransfers(targets ...ID) *Flow {
	f.transfers = append(f.transfers, targets...)
	return f
}

// ID returns the flow's name.
func (f *Flow) ID() ID {
	return f.id
}

// Len returns the number of steps.
func (f *Flow) Len() int {
	return len(f.steps)
}

func (f *Flow) step(index int) (StepFunc, error) {
	if index < 0 || index >= len(f.steps) {
		return nil, fmt.Errorf("%w: flow %q has %d steps, requested %d", ErrStepOverflow, f.id, len(f.steps), index)
	}
	return f.steps[index], nil
}
