package flow

import "errors"

var (
	// ErrDuplicateFlow indicates a flow name was registered twice.
	ErrDuplicateFlow = errors.New("duplicate flow name")
	// ErrUnknownFlow indicates a transfer or command targets a flow that
	// was never registered.
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrStepOverflow indicates an advance or entry past the last step of
	// a flow. A programming error: caught by tests, never user-facing.
	ErrStepOverflow = errors.New("step overflow")
	// ErrTransferChain indicates a dispatch exceeded the transfer hop
	// budget, which points at a flow cycle.
	ErrTransferChain = errors.New("transfer chain too long")
)
