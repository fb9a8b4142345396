package payroll

import "github.com/selaras-pos/selaras-pos/internal/attendance"

// EntryResponse is one bonus or deduction detail row on the wire.
type EntryResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// SkippedDeduction reports a manual deduction whose date matched no
// payroll line. It is surfaced instead of silently dropped.
type SkippedDeduction struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// DetailResponse is the aggregated payroll view for one employee.
type DetailResponse struct {
	EmployeeID         int64              `json:"employee_id"`
	EmployeeName       string             `json:"employee_name"`
	Period             string             `json:"period"`
	TotalBaseSalary    int64              `json:"total_base_salary"`
	TotalBonus         int64              `json:"total_bonus"`
	ManualBonus        int64              `json:"manual_bonus"`
	TotalDeduction     int64              `json:"total_deduction"`
	FinalAmount        int64              `json:"final_amount"`
	FinalAmountDisplay string             `json:"final_amount_display"`
	Bonuses            []EntryResponse    `json:"bonuses"`
	Deductions         []EntryResponse    `json:"deductions"`
	SkippedDeductions  []SkippedDeduction `json:"skipped_deductions,omitempty"`
}

// SlipResponse is the payment slip: the detail view plus status, a
// per-type deduction breakdown and the attendance summary.
type SlipResponse struct {
	DetailResponse
	Status             string             `json:"status"`
	DeductionBreakdown map[string]int64   `json:"deduction_breakdown"`
	Attendance         attendance.Summary `json:"attendance"`
}

// DetailQuery carries the optional explicit period of detail endpoints.
type DetailQuery struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateRequest is the manual adjustment payload.
type UpdateRequest struct {
	StartDate        string                   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          string                   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ManualBonus      int64                    `json:"manual_bonus" validate:"gte=0"`
	ManualDeductions []ManualDeductionRequest `json:"manual_deductions" validate:"dive"`
}

// ManualDeductionRequest is one dated deduction in UpdateRequest.
type ManualDeductionRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}
