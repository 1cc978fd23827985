package agent

import (
	"errors"
	"fmt"
)

// ErrSessionBusy is returned when Run is called while a previous run on the
// same session is still in flight. Sessions have a single logical writer.
var ErrSessionBusy = errors.New("session is already processing a request")

// ProviderError wraps a completion-provider failure that aborted a turn.
// After one of these the session refuses further runs; the caller decides
// whether to build a fresh session.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
