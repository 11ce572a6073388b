/*
Package raffle implements raffle-ticket accounting.

PURPOSE:
  Every qualifying sale converts into raffle tickets by a fixed step
  function, is stamped with the calendar period it belongs to, and is
  immutable from then on. Reports aggregate a period's entries per
  submitter.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: One immutable ticket submission
  - TicketsFor: The amount -> ticket step function
  - ParseAmount: Strict digit-only amount grammar

TICKET MATH:
  tickets(amount) = 1 + (amount - 500) / 250   (integer division)

  One ticket at the 500 minimum, one more per full 250 above it. The
  function is monotonic and non-decreasing; amounts below the minimum
  are rejected outright.

PERIOD FREEZING:
  An entry's PeriodKey is computed exactly once, at creation, from the
  target zone's calendar (period.go). It is never re-derived, so an
  entry's assigned period survives later changes to aggregation logic
  or zone boundary rules. Entries persisted before PeriodKey existed
  lack the field; aggregation falls back to deriving it from CreatedAt.

SEE ALSO:
  - ledger.go: Creation and persistence
  - period.go: Zone-scoped period keys
  - report.go: Aggregation and pagination
*/
package raffle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MinimumAmount is the smallest qualifying sale, in minor units.
	MinimumAmount = 500

	// TicketStep is the increment above the minimum that earns one more
	// ticket.
	TicketStep = 250
)

// Entry is one immutable raffle-ticket submission.
type Entry struct {
	SubjectName      string    `json:"subjectName"`
	ResourceName     string    `json:"resourceName"`
	CounterpartyName string    `json:"counterpartyName"`
	AmountMinorUnits int64     `json:"amountMinorUnits"`
	TicketCount      int64     `json:"ticketCount"`
	PeriodKey        string    `json:"periodKey,omitempty"` // "YYYY-MM" in the target zone, frozen at creation
	CreatedAt        time.Time `json:"createdAt"`
}

// Submission is the raw front-end input for one entry.
type Submission struct {
	SubjectName      string
	ResourceName     string
	CounterpartyName string
	Amount           string // digits only, no currency sign
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMalformedAmount is returned for non-digit amount input.
	ErrMalformedAmount = errors.New("amount must be a whole number")

	// ErrAmountBelowMinimum is returned for amounts under MinimumAmount.
	ErrAmountBelowMinimum = fmt.Errorf("amount must be %d or greater", MinimumAmount)
)

// FieldError reports a missing submission field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q must not be empty", e.Field)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	var fieldErr *FieldError
	return errors.Is(err, ErrMalformedAmount) ||
		errors.Is(err, ErrAmountBelowMinimum) ||
		errors.As(err, &fieldErr)
}

// =============================================================================
// TICKET MATH
// =============================================================================

// TicketsFor converts a qualifying amount to its ticket count.
func TicketsFor(amount int64) (int64, error) {
	if amount < MinimumAmount {
		return 0, ErrAmountBelowMinimum
	}
	return 1 + (amount-MinimumAmount)/TicketStep, nil
}

// ParseAmount parses strict digit-only amount input. Currency signs,
// separators, decimals and negatives are all rejected so the caller can
// tell the submitter exactly what to fix.
func ParseAmount(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("empty input: %w", ErrMalformedAmount)
	}
	if strings.Contains(trimmed, "$") {
		return 0, fmt.Errorf("currency sign not allowed: %w", ErrMalformedAmount)
	}

	var amount int64
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a whole number: %w", raw, ErrMalformedAmount)
		}
		amount = amount*10 + int64(r-'0')
		if amount > 1<<40 {
			return 0, fmt.Errorf("%q is out of range: %w", raw, ErrMalformedAmount)
		}
	}
	return amount, nil
}
