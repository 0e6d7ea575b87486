// Package stages defines the fixed governance order a migration project moves through.
package stages

import (
	"errors"
	"fmt"
)

var ErrUnknownStage = errors.New("unknown stage")

type Stage string

const (
	Intake         Stage = "intake"
	Design         Stage = "design"
	Pricing        Stage = "pricing"
	Procurement    Stage = "procurement"
	DevEnvironment Stage = "dev_environment"
	Pipeline       Stage = "pipeline"
	Security       Stage = "security"
	Production     Stage = "production"
)

var order = []Stage{
	Intake,
	Design,
	Pricing,
	Procurement,
	DevEnvironment,
	Pipeline,
	Security,
	Production,
}

var position = func() map[Stage]int {
	m := make(map[Stage]int, len(order))
	for i, s := range order {
		m[s] = i
	}
	return m
}()

// All returns the stages in governance order.
func All() []Stage {
	out := make([]Stage, len(order))
	copy(out, order)
	return out
}

// First is the stage new projects start at.
func First() Stage { return order[0] }

// Last is the terminal stage; approving it never advances a project.
func Last() Stage { return order[len(order)-1] }

// Parse converts a wire token into a Stage.
func Parse(raw string) (Stage, error) {
	s := Stage(raw)
	if _, ok := position[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return s, nil
}

// IndexOf returns the zero-based position of s in the governance order.
func IndexOf(s Stage) (int, error) {
	i, ok := position[s]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownStage, string(s))
	}
	return i, nil
}

// Next returns the stage following s. The second value is false when s is
// terminal or not a known stage.
func Next(s Stage) (Stage, bool) {
	i, ok := position[s]
	if !ok || i+1 >= len(order) {
		return "", false
	}
	return order[i+1], true
}

// IsTerminal reports whether Next has no successor for s, which holds for
// Last and for unknown values.
func IsTerminal(s Stage) bool {
	_, ok := Next(s)
	return !ok
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	_, ok := position[s]
	return ok
}

func (s Stage) String() string { return string(s) }
