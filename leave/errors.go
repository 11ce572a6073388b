/*
errors.go - Centralized error types for the leave workflow

ERROR CATEGORIES:
  1. Validation errors - malformed or missing submission fields
  2. Authorization errors - actor lacks the approver capability
  3. Parse errors - civil date / shift text the scheduler cannot resolve
  4. Conflict errors - duplicate (subject, date) identity

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, leave.ErrUnauthorized) { ... 403 ... }
    var dup *leave.DuplicateDateError
    if errors.As(err, &dup) { ... 409 ... }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized is returned when the actor lacks the approver
	// capability. No state change occurs.
	ErrUnauthorized = errors.New("actor is not an approver")

	// ErrRequestNotFound is returned when a request id resolves to nothing.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrNotApproved is returned when claiming a request that is not in
	// the Approved state; the claim dimension only exists once approved.
	ErrNotApproved = errors.New("request is not approved")

	// ErrDuplicateDate is returned when a (subject, date) pair already
	// exists in the ledger.
	ErrDuplicateDate = errors.New("duplicate leave date for subject")

	// ErrUnparseable wraps all civil date / shift grammar failures.
	ErrUnparseable = errors.New("unparseable field")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError reports a missing or malformed submission field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// DuplicateDateError identifies which (subject, date) pair collided.
type DuplicateDateError struct {
	SubjectID string
	Date      string
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("leave for %s on %s already exists", e.SubjectID, e.Date)
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateDate }

// ParseError reports why a date or shift field could not be resolved.
type ParseError struct {
	Field string // "date" or "shift"
	Value string
	Why   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %s", e.Field, e.Value, e.Why)
}

func (e *ParseError) Unwrap() error { return ErrUnparseable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	var fieldErr *FieldError
	return errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrNotApproved) ||
		errors.As(err, &fieldErr)
}
