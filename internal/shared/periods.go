// Package shared holds small helpers reused across domain modules.
package shared

import (
	"fmt"
	"time"
)

// Period is an inclusive calendar date range. Start and End are
// midnight-truncated in the local reporting timezone.
type Period struct {
	Start time.Time
	End   time.Time
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring clock time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekOf returns the Monday-to-Sunday week containing t.
func WeekOf(t time.Time) Period {
	day := DayOf(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	start := day.AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Contains reports whether day falls inside the period.
func (p Period) Contains(day time.Time) bool {
	d := DayOf(day)
	return !d.Before(p.Start) && !d.After(p.End)
}

// NextDay returns the exclusive upper bound of the period, midnight after End.
func (p Period) NextDay() time.Time {
	return DayOf(p.End).AddDate(0, 0, 1)
}

// Label renders the period for payment slips, e.g. "02 Mar - 08 Mar 2026".
func (p Period) Label() string {
	if p.Start.Year() == p.End.Year() {
		return fmt.Sprintf("%s - %s", p.Start.Format("02 Jan"), p.End.Format("02 Jan 2006"))
	}
	return fmt.Sprintf("%s - %s", p.Start.Format("02 Jan 2006"), p.End.Format("02 Jan 2006"))
}
