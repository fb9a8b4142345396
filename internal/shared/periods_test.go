package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOf(t *testing.T) {
	// Wednesday maps to its Monday-Sunday week.
	week := WeekOf(time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC))
	require.Equal(t, date(2026, 3, 2), week.Start)
	require.Equal(t, date(2026, 3, 8), week.End)

	// Sunday belongs to the week that started the previous Monday.
	week = WeekOf(date(2026, 3, 8))
	require.Equal(t, date(2026, 3, 2), week.Start)

	// Monday starts its own week.
	week = WeekOf(date(2026, 3, 2))
	require.Equal(t, date(2026, 3, 2), week.Start)
	require.Equal(t, date(2026, 3, 8), week.End)
}

func TestMonthOf(t *testing.T) {
	month := MonthOf(time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC))
	require.Equal(t, date(2026, 2, 1), month.Start)
	require.Equal(t, date(2026, 2, 28), month.End)

	month = MonthOf(date(2024, 2, 29))
	require.Equal(t, date(2024, 2, 29), month.End)
}

func TestContains(t *testing.T) {
	p := Period{Start: date(2026, 3, 2), End: date(2026, 3, 8)}
	require.True(t, p.Contains(date(2026, 3, 2)))
	require.True(t, p.Contains(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)))
	require.False(t, p.Contains(date(2026, 3, 1)))
	require.False(t, p.Contains(date(2026, 3, 9)))
}

func TestSameDay(t *testing.T) {
	require.True(t, SameDay(
		time.Date(2026, 3, 4, 0, 1, 0, 0, time.UTC),
		time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC),
	))
	require.False(t, SameDay(date(2026, 3, 4), date(2026, 3, 5)))
}

func TestNextDay(t *testing.T) {
	p := Period{Start: date(2026, 3, 2), End: date(2026, 3, 8)}
	require.Equal(t, date(2026, 3, 9), p.NextDay())
}

func TestLabel(t *testing.T) {
	p := Period{Start: date(2026, 3, 2), End: date(2026, 3, 8)}
	require.Equal(t, "02 Mar - 08 Mar 2026", p.Label())

	p = Period{Start: date(2025, 12, 29), End: date(2026, 1, 4)}
	require.Equal(t, "29 Dec 2025 - 04 Jan 2026", p.Label())
}
