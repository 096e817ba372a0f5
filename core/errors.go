package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id lookup against storage or the
	// location directory yields zero rows. A storage connectivity failure is
	// never translated into ErrNotFound; callers can rely on errors.Is to
	// tell the two apart.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input (an invalid candidate, an event
// draft with no temporal anchor). It is raised before any write occurs and is
// never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a plan state machine violation. It indicates
// a caller logic error; retrying the same call cannot succeed.
type InvalidTransitionError struct {
	PlanID string
	From   PlanStatus
	To     PlanStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("plan %s: invalid transition %s -> %s", e.PlanID, e.From, e.To)
}

// ResolutionWarning records a failed location name lookup during plan
// creation. It is non-fatal: creation proceeds with an absent location and
// the warning is logged rather than returned to the caller.
type ResolutionWarning struct {
	Name string
	Err  error
}

func (e *ResolutionWarning) Error() string {
	return fmt.Sprintf("could not resolve location %q: %v", e.Name, e.Err)
}

func (e *ResolutionWarning) Unwrap() error { return e.Err }
