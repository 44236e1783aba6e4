package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayNumber_MidnightBoundary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DayNumber(start, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 1, DayNumber(start, time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 1, DayNumber(start, time.Date(2024, 1, 1, 23, 59, 59, 999, time.UTC), time.UTC))
	assert.Equal(t, 2, DayNumber(start, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 2, DayNumber(start, time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC), time.UTC))
}

func TestDayNumber_ClampsBeforeStart(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DayNumber(start, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 1, DayNumber(start, time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), time.UTC))
}

func TestDayNumber_StartDateWithTimeComponent(t *testing.T) {
	// A start stored with a wall-clock time still means the whole calendar day.
	start := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, 1, DayNumber(start, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 2, DayNumber(start, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), time.UTC))
}

func TestDayNumber_ReferenceTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// 03:00 UTC on Jan 2 is still Jan 1 in New York.
	now := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, DayNumber(start, now, time.UTC))
	assert.Equal(t, 1, DayNumber(start, now, ny))
}

func TestDayNumber_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	// The 23-hour day of March 10 must not shift numbering.
	assert.Equal(t, 2, DayNumber(start, time.Date(2024, 3, 10, 23, 30, 0, 0, ny), ny))
	assert.Equal(t, 3, DayNumber(start, time.Date(2024, 3, 11, 0, 30, 0, 0, ny), ny))
}

func TestDayNumber_MonotonicInNow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)

	prev := DayNumber(start, now, time.UTC)
	for i := 0; i < 24*90; i++ {
		now = now.Add(time.Hour)
		cur := DayNumber(start, now, time.UTC)
		if cur < prev || cur < 1 {
			t.Fatalf("day number went from %d to %d at %s", prev, cur, now)
		}
		prev = cur
	}
	assert.Equal(t, 84, prev)
}

func TestDateForDay_InvertsDayNumber(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	for day := 1; day <= 10; day++ {
		assert.Equal(t, day, DayNumber(start, DateForDay(start, day), time.UTC))
	}
}

func TestFakeClock_AdvancesChallengeDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	require.Equal(t, 1, DayNumber(start, c.Now(), time.UTC))

	c.AdvanceDays(2)
	assert.Equal(t, time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC), c.Now())
	assert.Equal(t, 3, DayNumber(start, c.Now(), time.UTC))
}
