package game

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a coordinate lies outside the grid.
var ErrOutOfBounds = errors.New("row/col out of range")

// ConfigurationError describes setup input that was rejected. Callers are
// expected to substitute a default and carry on.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config %s=%v: %s", e.Field, e.Value, e.Reason)
}

// LogicError reports a broken internal invariant. It never results from
// player input routed through Grid.ResolveStrike.
type LogicError struct {
	Op     string
	Reason string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error in %s: %s", e.Op, e.Reason)
}
