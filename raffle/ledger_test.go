package raffle_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/crewdesk/raffle"
	"github.com/warp/crewdesk/store/jsonfile"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T, zone *time.Location) *raffle.Ledger {
	t.Helper()

	snap, err := jsonfile.New(filepath.Join(t.TempDir(), "tix.json"))
	require.NoError(t, err)

	ledger, err := raffle.NewLedger(context.Background(), snap, nil, zone, zap.NewNop())
	require.NoError(t, err)
	return ledger
}

func ticket(subject, resource, amount string) raffle.Submission {
	return raffle.Submission{
		SubjectName:      subject,
		ResourceName:     resource,
		CounterpartyName: "fan-1",
		Amount:           amount,
	}
}

// =============================================================================
// CREATION
// =============================================================================

func TestCreate_FreezesTicketCountAndPeriod(t *testing.T) {
	// GIVEN: A ledger clocked to 2024-03-15 in UTC
	// WHEN: Submitting a 1000 sale
	// THEN: The entry freezes 3 tickets and the "2024-03" period key

	ledger := newTestLedger(t, time.UTC)
	ledger.Clock = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}

	entry, err := ledger.Create(context.Background(), ticket("chatter-1", "model-a", "1000"))
	require.NoError(t, err)

	assert.Equal(t, int64(1000), entry.AmountMinorUnits)
	assert.Equal(t, int64(3), entry.TicketCount)
	assert.Equal(t, "2024-03", entry.PeriodKey)
}

func TestCreate_PeriodKeyUsesTargetZone(t *testing.T) {
	// GIVEN: A ledger in America/New_York clocked to 2024-04-01 02:00 UTC
	// WHEN: Creating an entry
	// THEN: It belongs to March, the month on the eastern wall clock

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ledger := newTestLedger(t, ny)
	ledger.Clock = func() time.Time {
		return time.Date(2024, time.April, 1, 2, 0, 0, 0, time.UTC)
	}

	entry, err := ledger.Create(context.Background(), ticket("chatter-1", "model-a", "500"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03", entry.PeriodKey)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	ledger := newTestLedger(t, time.UTC)
	ctx := context.Background()

	_, err := ledger.Create(ctx, ticket("chatter-1", "model-a", "499"))
	assert.ErrorIs(t, err, raffle.ErrAmountBelowMinimum)

	_, err = ledger.Create(ctx, ticket("chatter-1", "model-a", "$500"))
	assert.ErrorIs(t, err, raffle.ErrMalformedAmount)

	_, err = ledger.Create(ctx, ticket("", "model-a", "500"))
	var fieldErr *raffle.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "subjectName", fieldErr.Field)

	assert.Empty(t, ledger.Entries(), "nothing persisted on rejection")
}

// =============================================================================
// PERIOD SELECTION
// =============================================================================

func TestEntriesForPeriod_StoredKeyWins(t *testing.T) {
	ledger := newTestLedger(t, time.UTC)
	ctx := context.Background()

	ledger.Clock = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	_, err := ledger.Create(ctx, ticket("chatter-1", "model-a", "500"))
	require.NoError(t, err)

	ledger.Clock = func() time.Time {
		return time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)
	}
	_, err = ledger.Create(ctx, ticket("chatter-2", "model-b", "750"))
	require.NoError(t, err)

	march := ledger.EntriesForPeriod("2024-03")
	require.Len(t, march, 1)
	assert.Equal(t, "chatter-1", march[0].SubjectName)

	april := ledger.EntriesForPeriod("2024-04")
	require.Len(t, april, 1)
	assert.Equal(t, "chatter-2", april[0].SubjectName)
}

func TestEntriesForPeriod_LegacyFallback(t *testing.T) {
	// GIVEN: A snapshot written before period keys existed
	// WHEN: Selecting a period
	// THEN: Keyless entries match by deriving the key from CreatedAt

	path := filepath.Join(t.TempDir(), "tix.json")
	snap, err := jsonfile.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	legacy := []raffle.Entry{{
		SubjectName:      "chatter-legacy",
		ResourceName:     "model-a",
		CounterpartyName: "fan-1",
		AmountMinorUnits: 500,
		TicketCount:      1,
		CreatedAt:        time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, snap.Save(ctx, legacy))

	ledger, err := raffle.NewLedger(ctx, snap, nil, time.UTC, zap.NewNop())
	require.NoError(t, err)

	march := ledger.EntriesForPeriod("2024-03")
	require.Len(t, march, 1)
	assert.Equal(t, "chatter-legacy", march[0].SubjectName)
	assert.Empty(t, ledger.EntriesForPeriod("2024-04"))
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReport_GroupsBySubmitterInFirstSeenOrder(t *testing.T) {
	ledger := newTestLedger(t, time.UTC)
	ledger.Clock = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	_, err := ledger.Create(ctx, ticket("beta", "model-a", "500"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, ticket("alpha", "model-b", "750"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, ticket("beta", "model-c", "1000"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, ticket("beta", "model-a", "500"))
	require.NoError(t, err)

	report := ledger.Report("2024-03")
	assert.Equal(t, "March 2024", report.Title)
	require.Len(t, report.Groups, 2)

	// beta submitted first, so it leads despite alphabetical order.
	beta := report.Groups[0]
	assert.Equal(t, "beta", beta.Subject)
	assert.Equal(t, int64(5), beta.TicketCount)
	assert.Equal(t, int64(2000), beta.AmountMinorUnits)
	assert.Equal(t, []string{"model-a", "model-c"}, beta.Resources, "distinct, first-seen order")
	assert.Equal(t, "20.00", beta.Amount().StringFixed(2))

	alpha := report.Groups[1]
	assert.Equal(t, "alpha", alpha.Subject)
	assert.Equal(t, int64(2), alpha.TicketCount)
}

func TestReport_EmptyPeriod(t *testing.T) {
	ledger := newTestLedger(t, time.UTC)

	report := ledger.Report("2024-03")
	assert.True(t, report.Empty())
	assert.Nil(t, report.Pages())
	assert.Equal(t, "March 2024", report.Title)
}

func TestReport_PaginationPreservesOrder(t *testing.T) {
	// GIVEN: 40 distinct submitters in one period
	// WHEN: Paginating the report
	// THEN: Two pages of 25 and 15 rows, in submission order

	ledger := newTestLedger(t, time.UTC)
	ledger.Clock = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		_, err := ledger.Create(ctx, ticket(fmt.Sprintf("chatter-%02d", i), "model-a", "500"))
		require.NoError(t, err)
	}

	pages := ledger.Report("2024-03").Pages()
	require.Len(t, pages, 2)
	assert.Len(t, pages[0], 25)
	assert.Len(t, pages[1], 15)
	assert.Equal(t, "chatter-00", pages[0][0].Subject)
	assert.Equal(t, "chatter-24", pages[0][24].Subject)
	assert.Equal(t, "chatter-25", pages[1][0].Subject)
	assert.Equal(t, "chatter-39", pages[1][14].Subject)
}

func TestReport_BlankSubjectGroupsAsUnknown(t *testing.T) {
	entries := []raffle.Entry{
		{SubjectName: "", TicketCount: 1, AmountMinorUnits: 500},
		{SubjectName: "", TicketCount: 2, AmountMinorUnits: 750},
	}

	report := raffle.BuildReport("2024-03", entries)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "Unknown", report.Groups[0].Subject)
	assert.Equal(t, int64(3), report.Groups[0].TicketCount)
}
