package streambind

import (
	"context"
	"errors"
)

// contextDone returns true if ctx.Err() != nil.
func contextDone(ctx context.Context) bool {
	return ctx.Err() != nil
}

// terminalCause returns the terminal signal of a completed stream context:
// nil for success, the failure cause otherwise. ErrShortCircuit counts as
// success, matching the semantics of deliberate early termination.
func terminalCause(ctx context.Context) error {
	err := context.Cause(ctx)
	if err == nil || errors.Is(err, ErrShortCircuit) {
		return nil
	}

	return err
}
