package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crewdesk/leave"
)

// =============================================================================
// WINDOW PREDICATE
// =============================================================================

func TestReminderDue_WindowBoundaries(t *testing.T) {
	target := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before window", target.Add(-24 * time.Hour), false},
		{"just before window opens", target.Add(-leave.ReminderLead - time.Second), false},
		{"exactly at window open", target.Add(-leave.ReminderLead), true},
		{"inside window", target.Add(-6 * time.Hour), true},
		{"one second before shift", target.Add(-time.Second), true},
		{"exactly at shift start", target, false},
		{"after shift start", target.Add(time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, leave.ReminderDue(tc.now, target))
		})
	}
}

// =============================================================================
// SWEEP BEHAVIOR
// =============================================================================

// approveAndClaim moves a fresh request into the reminder-eligible state.
func approveAndClaim(t *testing.T, ledger *leave.Ledger, date, shift string) leave.RequestID {
	t.Helper()
	ctx := context.Background()

	sub := submission("user-1", date)
	sub.Shift = shift
	created, err := ledger.Submit(ctx, sub)
	require.NoError(t, err)
	id := created[0].ID

	_, err = ledger.Approve(ctx, id, "approver-1")
	require.NoError(t, err)
	_, err = ledger.Claim(ctx, id, "volunteer-1")
	require.NoError(t, err)
	return id
}

func TestSweepReminders_FiresInsideWindow(t *testing.T) {
	// GIVEN: An approved, claimed request for 03/15/2024 9am UTC
	// WHEN: Sweeping 6 hours before the shift
	// THEN: The request fires once and the marker persists

	ledger := newTestLedger(t, "approver-1")
	id := approveAndClaim(t, ledger, "03/15/2024", "9am")

	now := time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC)
	fired, err := ledger.SweepReminders(context.Background(), now, time.UTC)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, id, fired[0].ID)
	require.NotNil(t, fired[0].ReminderSentAt)
	assert.True(t, fired[0].ReminderSentAt.Equal(now))
}

func TestSweepReminders_AtMostOnce(t *testing.T) {
	// GIVEN: A request that fired on one sweep
	// WHEN: Sweeping again inside the same window
	// THEN: Nothing fires a second time

	ledger := newTestLedger(t, "approver-1")
	approveAndClaim(t, ledger, "03/15/2024", "9am")
	ctx := context.Background()

	now := time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC)
	fired, err := ledger.SweepReminders(ctx, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, fired, 1)

	fired, err = ledger.SweepReminders(ctx, now.Add(5*time.Minute), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestSweepReminders_SkipsOutsideWindow(t *testing.T) {
	ledger := newTestLedger(t, "approver-1")
	approveAndClaim(t, ledger, "03/15/2024", "9am")
	ctx := context.Background()

	// Too early: window has not opened.
	fired, err := ledger.SweepReminders(ctx,
		time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, fired)

	// Too late: a sweep after the shift started never fires.
	fired, err = ledger.SweepReminders(ctx,
		time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestSweepReminders_IgnoresUnclaimedAndPending(t *testing.T) {
	// GIVEN: One pending request and one approved-but-unclaimed request
	// WHEN: Sweeping inside what would be their window
	// THEN: Neither fires; only approved-and-claimed requests remind

	ledger := newTestLedger(t, "approver-1")
	ctx := context.Background()

	_, err := ledger.Submit(ctx, submission("user-1", "03/15/2024"))
	require.NoError(t, err)

	created, err := ledger.Submit(ctx, submission("user-2", "03/15/2024"))
	require.NoError(t, err)
	_, err = ledger.Approve(ctx, created[0].ID, "approver-1")
	require.NoError(t, err)

	fired, err := ledger.SweepReminders(ctx,
		time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestSweepReminders_SkipsUnparseable(t *testing.T) {
	// GIVEN: An eligible request whose shift text has no time token
	// WHEN: Sweeping
	// THEN: The sweep succeeds, skips it and leaves it unmarked

	ledger := newTestLedger(t, "approver-1")
	approveAndClaim(t, ledger, "03/15/2024", "morning shift")
	ctx := context.Background()

	fired, err := ledger.SweepReminders(ctx,
		time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, fired)

	all := ledger.Find(func(leave.Request) bool { return true })
	require.Len(t, all, 1)
	assert.Nil(t, all[0].ReminderSentAt)
}

func TestSweepReminders_DSTCorrectOffset(t *testing.T) {
	// GIVEN: A shift on 03/11/2024 9am in America/New_York, the Monday
	//        after the spring-forward transition
	// WHEN: Sweeping at 01:30 UTC (21:30 on 03/10 eastern wall clock)
	// THEN: The reminder fires, because 9am EDT is 13:00 UTC and the
	//       12-hour window opened at 01:00 UTC

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ledger := newTestLedger(t, "approver-1")
	approveAndClaim(t, ledger, "03/11/2024", "9am")
	ctx := context.Background()

	fired, err := ledger.SweepReminders(ctx,
		time.Date(2024, time.March, 11, 1, 30, 0, 0, time.UTC), ny)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	// Under the standard-time offset the window would already be open at
	// 00:30 UTC; with the correct EDT offset it is not.
	ledger2 := newTestLedger(t, "approver-1")
	approveAndClaim(t, ledger2, "03/11/2024", "9am")
	fired, err = ledger2.SweepReminders(ctx,
		time.Date(2024, time.March, 11, 0, 30, 0, 0, time.UTC), ny)
	require.NoError(t, err)
	assert.Empty(t, fired)
}
