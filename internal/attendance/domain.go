// Package attendance tracks daily employee check-ins and check-outs.
package attendance

import (
	"time"

	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// ApprovalStatus is the review state of a late check-in.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Attendance is one employee work day. One row exists per employee per
// calendar day; it is created at check-in and mutated once at check-out.
type Attendance struct {
	ID            int64
	EmployeeID    int64
	OutletID      int64
	CheckinTime   time.Time
	CheckoutTime  *time.Time
	LateMinutes   int
	LateStatus    ApprovalStatus
	CheckinProof  string
	CheckoutProof string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckedOut reports whether the day has been closed.
func (a *Attendance) CheckedOut() bool {
	return a.CheckoutTime != nil
}

// ScheduledWorkdays counts the calendar days in period whose weekday is
// covered by at least one schedule. Employees with no schedule have no
// scheduled days, so nothing to be absent from.
func ScheduledWorkdays(period shared.Period, covered map[time.Weekday]bool) int {
	n := 0
	for d := shared.DayOf(period.Start); !d.After(shared.DayOf(period.End)); d = d.AddDate(0, 0, 1) {
		if covered[d.Weekday()] {
			n++
		}
	}
	return n
}

// Summary aggregates attendance states over a period for payment slips.
type Summary struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
	Leave   int `json:"leave"`
	Excused int `json:"excused"`
	Sick    int `json:"sick"`
}
