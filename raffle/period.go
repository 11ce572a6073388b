package raffle

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD KEYS - Zone-scoped "YYYY-MM" aggregation buckets
// =============================================================================

// PeriodKey returns the "YYYY-MM" bucket the instant belongs to, as
// observed in loc. The zone matters: an entry created 2024-04-01 02:00
// UTC belongs to March in America/New_York.
func PeriodKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// PreviousPeriodKey returns the bucket immediately before the one the
// instant belongs to in loc, handling the January wrap.
func PreviousPeriodKey(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	year, month := local.Year(), local.Month()
	if month == time.January {
		return fmt.Sprintf("%04d-12", year-1)
	}
	return fmt.Sprintf("%04d-%02d", year, month-1)
}

// PeriodTitle renders a period key as "March 2024" for report headers.
// Malformed keys are returned unchanged.
func PeriodTitle(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
