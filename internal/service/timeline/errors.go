package timeline

import (
	"errors"
	"fmt"

	"timeline-service/internal/model"
)

// ValidationError reports bad input on a create or comment command.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a status change that is not on the
// transition table. The milestone state is left unchanged.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// InvalidDependencyError reports a rejected dependency edge: a cross-document
// reference or a cycle back to the origin milestone.
type InvalidDependencyError struct {
	MilestoneID int
	Reason      string
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("invalid dependency for milestone %d: %s", e.MilestoneID, e.Reason)
}

// ErrGraphCorrupted signals a cycle already present in stored data,
// discovered during the bounded graph walk. This is inconsistent stored
// state, not bad input, and surfaces distinctly from InvalidDependencyError.
var ErrGraphCorrupted = errors.New("dependency graph corrupted: stored cycle detected")
