package raffle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crewdesk/raffle"
)

// =============================================================================
// TICKET MATH
// =============================================================================

func TestTicketsFor_StepFunction(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{500, 1},
		{749, 1},
		{750, 2},
		{999, 2},
		{1000, 3},
		{1249, 3},
		{1250, 4},
		{10000, 39},
	}

	for _, tc := range cases {
		got, err := raffle.TicketsFor(tc.amount)
		require.NoError(t, err, "amount %d", tc.amount)
		assert.Equal(t, tc.want, got, "amount %d", tc.amount)
	}
}

func TestTicketsFor_BelowMinimum(t *testing.T) {
	for _, amount := range []int64{0, 1, 250, 499} {
		_, err := raffle.TicketsFor(amount)
		assert.ErrorIs(t, err, raffle.ErrAmountBelowMinimum, "amount %d", amount)
	}
}

// =============================================================================
// AMOUNT GRAMMAR
// =============================================================================

func TestParseAmount_Valid(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"500", 500},
		{"1000", 1000},
		{" 750 ", 750},
		{"0", 0},
	}

	for _, tc := range cases {
		got, err := raffle.ParseAmount(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseAmount_Rejected(t *testing.T) {
	cases := []string{
		"",
		"$500",
		"500.00",
		"1,000",
		"-500",
		"five hundred",
		"500 usd",
	}

	for _, input := range cases {
		_, err := raffle.ParseAmount(input)
		assert.ErrorIs(t, err, raffle.ErrMalformedAmount, "input %q", input)
	}
}

// =============================================================================
// PERIOD KEYS
// =============================================================================

func TestPeriodKey_ZoneScoped(t *testing.T) {
	// GIVEN: An instant shortly after the UTC month boundary
	// WHEN: Bucketing in America/New_York
	// THEN: It still belongs to the previous month

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	instant := time.Date(2024, time.April, 1, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-04", raffle.PeriodKey(instant, time.UTC))
	assert.Equal(t, "2024-03", raffle.PeriodKey(instant, ny))
}

func TestPreviousPeriodKey(t *testing.T) {
	march := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02", raffle.PreviousPeriodKey(march, time.UTC))

	// January wraps to December of the prior year.
	january := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-12", raffle.PreviousPeriodKey(january, time.UTC))
}

func TestPeriodTitle(t *testing.T) {
	assert.Equal(t, "March 2024", raffle.PeriodTitle("2024-03"))
	assert.Equal(t, "December 2023", raffle.PeriodTitle("2023-12"))
	assert.Equal(t, "garbage", raffle.PeriodTitle("garbage"))
}
