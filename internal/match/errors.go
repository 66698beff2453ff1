package match

import (
	"errors"
	"fmt"
)

// ErrNotActive is returned for strikes outside the Active state.
var ErrNotActive = errors.New("match is not accepting strikes")

// ErrNotFinished is returned when statistics are closed before the end.
var ErrNotFinished = errors.New("match is not finished")

// SetupError is fatal: a required integration point is missing and the
// match cannot be built.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string { return fmt.Sprintf("match setup: %s", e.Reason) }
