package flow

type directive int

const (
	directiveStay directive = iota
	directiveAdvance
	directiveLeave
	directiveTransfer
)

// Result is the control directive a step handler returns to the stage.
type Result struct {
	kind directive

	target ID
	step   int

	// text overrides the inbound message text for the re-invoked target
	// step. Used to resume a flow with input resolved elsewhere (e.g. the
	// corrected query chosen in the spell-check confirmation flow).
	text     string
	override bool
}

// Stay keeps the session at the current step, awaiting another message.
func Stay() Result {
	return Result{kind: directiveStay}
}

// Advance moves the session to the next step of the current flow.
func Advance() Result {
	return Result{kind: directiveAdvance}
}

// Leave clears the flow position; the session exits all flows.
func Leave() Result {
	return Result{kind: directiveLeave}
}

// TransferTo replaces the flow position with the target flow's first step
// and synchronously re-invokes it within the same dispatch.
func TransferTo(target ID) Result {
	return Result{kind: directiveTransfer, target: target}
}

// TransferToStep is TransferTo with an explicit entry step.
func TransferToStep(target ID, step int) Result {
	return Result{kind: directiveTransfer, target: target, step: step}
}

// Resume transfers to the target step and re-invokes it with text in place
// of the inbound message text.
func Resume(target ID, step int, text string) Result {
	return Result{kind: directiveTransfer, target: target, step: step, text: text, override: true}
}
