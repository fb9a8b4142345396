// Package outlet holds outlet master data and weekday work schedules.
package outlet

import (
	"fmt"
	"time"
)

// Outlet is a single point of sale.
type Outlet struct {
	ID           int64
	Name         string
	Address      string
	IncomeTarget int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Setting is one weekday-scoped work schedule for an outlet. Multiple
// settings may exist per outlet and weekday; the earliest check-in time
// is authoritative for lateness.
type Setting struct {
	ID       int64
	OutletID int64
	CheckIn  DayMinute
	CheckOut DayMinute
	Days     []time.Weekday
	Salary   int64
	IsActive bool
}

// AppliesTo reports whether the setting covers the given weekday.
func (s Setting) AppliesTo(day time.Weekday) bool {
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DayMinute is a time of day at HH:MM granularity, stored as minutes
// since midnight.
type DayMinute int

// ParseDayMinute parses "HH:MM".
func ParseDayMinute(s string) (DayMinute, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("outlet: parse day minute %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("outlet: day minute %q out of range", s)
	}
	return DayMinute(h*60 + m), nil
}

// DayMinuteOf extracts the minutes-since-midnight of an instant.
func DayMinuteOf(t time.Time) DayMinute {
	return DayMinute(t.Hour()*60 + t.Minute())
}

func (d DayMinute) String() string {
	return fmt.Sprintf("%02d:%02d", int(d)/60, int(d)%60)
}
