// Package payroll derives daily payroll lines from attendance and sales,
// aggregates unpaid lines into payment batches, and builds payment slips.
package payroll

import "time"

// Policy constants. Fixed business rates, not user-configurable.
const (
	// LateDeductionPerMinute is charged for every minute of lateness.
	LateDeductionPerMinute int64 = 1000
	// BonusStep is the sales-above-target increment that earns one bonus unit.
	BonusStep int64 = 100_000
	// BonusPerStep is the bonus earned per full BonusStep of exceeded sales.
	BonusPerStep int64 = 5000
)

// BonusType enumerates bonus origins.
type BonusType string

const (
	BonusTargetAchievement BonusType = "TARGET_ACHIEVEMENT"
	BonusPerformance       BonusType = "PERFORMANCE"
	BonusAttendance        BonusType = "ATTENDANCE"
	BonusManual            BonusType = "MANUAL"
	BonusOther             BonusType = "OTHER"
)

// DeductionType enumerates deduction origins.
type DeductionType string

const (
	DeductionLate   DeductionType = "LATE"
	DeductionAbsent DeductionType = "ABSENT"
	DeductionLoan   DeductionType = "LOAN"
	DeductionOther  DeductionType = "OTHER"
)

// BatchStatus is the payment batch lifecycle state.
type BatchStatus string

const (
	BatchPending    BatchStatus = "PENDING"
	BatchProcessing BatchStatus = "PROCESSING"
	BatchPaid       BatchStatus = "PAID"
)

// SlipStatusPreview marks a slip built from still-unpaid lines.
const SlipStatusPreview = "PREVIEW"

// Payroll is one outlet employee's pay for one work date.
// FinalSalary is always recomputed from the other three, never set
// independently.
type Payroll struct {
	ID             int64
	EmployeeID     int64
	OutletID       int64
	AttendanceID   int64
	BaseSalary     int64
	TotalBonus     int64
	TotalDeduction int64
	FinalSalary    int64
	WorkDate       time.Time
	PaymentBatchID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InternalPayroll is one internal-salaried employee's pay for one
// calendar month.
type InternalPayroll struct {
	ID             int64
	EmployeeID     int64
	PeriodStart    time.Time
	PeriodEnd      time.Time
	BaseSalary     int64
	TotalBonus     int64
	TotalDeduction int64
	FinalSalary    int64
	PaymentBatchID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Bonus is an append-only bonus detail row attached to a payroll line.
type Bonus struct {
	ID                int64
	PayrollID         *int64
	InternalPayrollID *int64
	Type              BonusType
	Amount            int64
	Description       string
	Reference         map[string]any
	Date              time.Time
}

// Deduction is an append-only deduction detail row.
type Deduction struct {
	ID                int64
	PayrollID         *int64
	InternalPayrollID *int64
	Type              DeductionType
	Amount            int64
	Description       string
	Reference         map[string]any
	Date              time.Time
}

// PaymentBatch groups payroll lines paid together. Immutable after
// creation except the status transition to PAID.
type PaymentBatch struct {
	ID               int64
	EmployeeID       int64
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalBaseSalary  int64
	TotalBonus       int64
	TotalDeduction   int64
	TotalFinalSalary int64
	Status           BatchStatus
	PaidAt           *time.Time
	PaymentMethod    *string
	PaymentReference *string
	CreatedAt        time.Time
}

// TargetBonus computes the step-function bonus for sales exceeding the
// outlet income target: every full BonusStep above target earns
// BonusPerStep. Floor, never round.
func TargetBonus(ordersTotal, incomeTarget int64) (bonus, exceeded int64) {
	exceeded = ordersTotal - incomeTarget
	if exceeded < 0 {
		exceeded = 0
	}
	return (exceeded / BonusStep) * BonusPerStep, exceeded
}

// LateDeduction computes the deduction for minutes of lateness.
func LateDeduction(lateMinutes int) int64 {
	if lateMinutes <= 0 {
		return 0
	}
	return int64(lateMinutes) * LateDeductionPerMinute
}
