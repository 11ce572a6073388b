/*
Package leave implements the leave-request workflow.

PURPOSE:
  A leave request moves through a small approval state machine:

    Pending ──▶ Approved ──▶ (claimed)
        └─────▶ Declined

  with one orthogonal, one-way dimension: once Approved, anyone may claim
  coverage for the absence. The Ledger (ledger.go) owns the authoritative
  collection and serializes every mutation; the reminder sweep
  (reminder.go) reads the same collection and writes back exactly one
  field per request.

KEY CONCEPTS IN THIS FILE (types.go):
  - Request: One absence on one civil date
  - Status:  The approval dimension
  - Submission: Raw multi-date input from the front end
  - Authorizer: Capability check for approve/decline

DESIGN PRINCIPLES:
  1. Civil dates stay strings: the stored `MM/DD/YYYY` form is the
     identity key and is only resolved to an instant by the reminder
     sweep, in the configured zone (parse.go).
  2. Identity is (SubjectID, Date). The uuid handle exists for transport
     routing only.
  3. Approve/decline are idempotent overwrites: the front end delivers
     button presses at-least-once.

SEE ALSO:
  - ledger.go: State machine operations and persistence
  - parse.go:  Civil date / shift grammar
  - reminder.go: Window predicate and sweep
*/
package leave

import (
	"time"
)

// Status is the approval dimension of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusDeclined Status = "Declined"
)

// RequestID is the opaque transport handle for one request.
type RequestID string

// Request is a single leave request for a single civil date.
type Request struct {
	ID                RequestID  `json:"id"`
	SubjectID         string     `json:"subjectId"`
	DisplayName       string     `json:"displayName"`
	Date              string     `json:"date"` // civil MM/DD/YYYY
	Shift             string     `json:"shift"`
	AffectedResources string     `json:"affectedResources"`
	Reason            string     `json:"reason"`
	Status            Status     `json:"status"`
	ApproverID        string     `json:"approverId,omitempty"`
	ClaimedBy         string     `json:"claimedBy,omitempty"`
	ReminderSentAt    *time.Time `json:"reminderSentAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Claimed reports whether coverage has been volunteered.
func (r Request) Claimed() bool { return r.ClaimedBy != "" }

// ReminderEligible reports whether the reminder sweep should consider
// this request: approved, claimed, and not yet reminded.
func (r Request) ReminderEligible() bool {
	return r.Status == StatusApproved && r.Claimed() && r.ReminderSentAt == nil
}

// Submission is the raw front-end input. Dates is a comma-separated list
// of civil dates; each becomes an independent request sharing the other
// fields.
type Submission struct {
	SubjectID         string
	DisplayName       string
	Dates             string
	Shift             string
	AffectedResources string
	Reason            string
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

// Authorizer decides whether an actor holds the approver capability.
type Authorizer interface {
	CanApprove(actorID string) bool
}

// ApproverSet is a static approver capability set.
type ApproverSet map[string]struct{}

func NewApproverSet(ids ...string) ApproverSet {
	s := make(ApproverSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ApproverSet) CanApprove(actorID string) bool {
	_, ok := s[actorID]
	return ok
}
