package process

import (
	"errors"
	"fmt"
	"strings"

	"github.com/integrityline/legal-process-api/models"
)

// Sentinel errors for the simple failure kinds. All of these are
// recoverable and user-facing; callers surface them verbatim.
var (
	// ErrInvalidDate is returned for zero or unparseable dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidArgument is returned for bad offsets or day counts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyInitialized guards deadline instantiation idempotence: a
	// stage's templates may only be expanded once per case.
	ErrAlreadyInitialized = errors.New("stage deadlines already initialized")

	// ErrNotFound is returned for unknown deadline or case ids.
	ErrNotFound = errors.New("not found")

	// ErrStaleCase is returned when a version-checked write loses the race
	// to a concurrent writer; the caller should reload and retry.
	ErrStaleCase = errors.New("case was modified concurrently")
)

// ValidationError reports invalid user input, e.g. a missing extension
// reason or a non-positive additional-days value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IllegalTransitionError reports a stage request that is not the computed
// next stage (skipping ahead or going backward).
type IllegalTransitionError struct {
	From      models.Stage
	Requested models.Stage
	Allowed   models.Stage
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q, next allowed stage is %q", e.From, e.Requested, e.Allowed)
}

// PreconditionNotMetError carries every unmet guard, not just the first,
// so the caller can display everything blocking progress at once.
type PreconditionNotMetError struct {
	Stage   models.Stage
	Missing []string
}

func (e *PreconditionNotMetError) Error() string {
	return fmt.Sprintf("preconditions not met to leave stage %q: %s", e.Stage, strings.Join(e.Missing, "; "))
}

// CyclicDependencyError reports a cycle in the deadline template dependency
// graph. This is a configuration defect detected at template load, never at
// runtime.
type CyclicDependencyError struct {
	Stage models.Stage
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic deadline dependency in stage %q templates: %s", e.Stage, strings.Join(e.Cycle, " -> "))
}
