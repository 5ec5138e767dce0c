// Package repository holds the data access layer. This file defines the
// error values shared across repositories so that handlers can map failure
// kinds to HTTP responses: role check failures, rows not in the expected
// state, rejected input, and partially applied cascades each surface as a
// distinct error.
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the acting profile's stored role does not
// permit the requested operation. The check runs at the data-access
// boundary, not only in the HTTP route guard, so a caller that bypasses
// the guard still gets this error. Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicateApplication is returned when a user already has a pending
// owner application. Enforcement is the unique index over the generated
// pending_user_id column, so two concurrent submissions cannot both
// succeed.
var ErrDuplicateApplication = errors.New("pending application already exists")

// ErrAlreadyProcessed is returned when a decision targets an application
// that is not pending: it was either already decided or never existed. The
// underlying guard is a conditional update restricted to status='pending',
// which also makes concurrent double-decisions safe.
var ErrAlreadyProcessed = errors.New("application not pending")

// ErrSlotsOutOfRange is returned when an availability adjustment would push
// available_slots outside [0, total_slots]. The stored value is unchanged.
var ErrSlotsOutOfRange = errors.New("available slots out of range")

// Not-found sentinels per entity. Handlers translate these into 404.
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrLocationNotFound    = errors.New("location not found")
	ErrZoneNotFound        = errors.New("zone not found")
	ErrEmailExists         = errors.New("email already exists")
)

// ValidationError reports a malformed or out-of-range field. It is returned
// before any write reaches storage; correcting the input makes the
// operation retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialCascadeError reports an ownership cascade that may have been
// partially applied: a step failed and the rollback of the surrounding
// transaction failed too. It is surfaced distinctly from total failure so
// the caller knows to re-invoke the idempotent cascade (or reconcile by
// hand) rather than assume the pre-removal state.
type PartialCascadeError struct {
	OwnerID  uint64
	Step     string // step that failed, e.g. "delete locations"
	Err      error  // failure of the step itself
	Rollback error  // failure of the rollback attempt
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("owner %d cascade partially applied at %q: %v (rollback: %v)",
		e.OwnerID, e.Step, e.Err, e.Rollback)
}

func (e *PartialCascadeError) Unwrap() error { return e.Err }
