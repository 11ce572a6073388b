/*
reminder.go - One-shot shift reminders driven by a coarse periodic sweep

PURPOSE:
  Approved-and-claimed requests get exactly one reminder, a fixed lead
  time before the shift starts. The check runs on a coarse sweep rather
  than at a precise instant, so correctness comes from two things:

    1. The window predicate: fire iff now is inside
       [target - lead, target). A sweep that lands after the window has
       closed never fires - a long outage simply skips the reminder.
    2. The ReminderSentAt guard: set under the ledger mutex in the same
       critical section as the persist, so two sweeps with the same
       clock can never both fire for one request.

PARSE FAILURES:
  A request whose date or shift cannot be parsed is skipped for that
  sweep and logged. The guard field stays nil, so it is re-examined
  every sweep and permanently skipped once its window has passed. That
  fail-closed behavior is deliberate; a fix requires editing the stored
  request.
*/
package leave

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReminderLead is how long before the shift start the reminder fires.
const ReminderLead = 12 * time.Hour

// ReminderDue reports whether now falls inside the reminder window
// [target-lead, target) for the given shift-start instant.
func ReminderDue(now, target time.Time) bool {
	windowStart := target.Add(-ReminderLead)
	return !now.Before(windowStart) && now.Before(target)
}

// SweepReminders examines every eligible request, resolves its civil
// date and shift in loc, and marks those inside the reminder window.
// The marked requests are persisted before being returned, so the
// caller can notify without racing a second sweep.
func (l *Ledger) SweepReminders(ctx context.Context, now time.Time, loc *time.Location) ([]Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fired []Request
	var firedIdx []int
	for i := range l.items {
		r := l.items[i]
		if !r.ReminderEligible() {
			continue
		}

		target, err := ShiftInstant(r, loc)
		if err != nil {
			l.log.Warn("skipping unparseable request",
				zap.String("id", string(r.ID)),
				zap.String("date", r.Date),
				zap.String("shift", r.Shift),
				zap.Error(err))
			continue
		}

		if !ReminderDue(now, target) {
			continue
		}

		sentAt := now
		l.items[i].ReminderSentAt = &sentAt
		fired = append(fired, l.items[i])
		firedIdx = append(firedIdx, i)
	}

	if len(fired) == 0 {
		return nil, nil
	}

	if err := l.persistLocked(ctx); err != nil {
		for _, i := range firedIdx {
			l.items[i].ReminderSentAt = nil
		}
		return nil, err
	}
	return fired, nil
}
