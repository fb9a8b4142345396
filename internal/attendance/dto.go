package attendance

import "time"

// CheckInRequest is the check-in payload.
type CheckInRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	OutletID   int64  `json:"outlet_id" validate:"required,gt=0"`
	ProofPath  string `json:"proof_path" validate:"required"`
}

// CheckOutRequest is the check-out payload.
type CheckOutRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	ProofPath  string `json:"proof_path" validate:"required"`
}

// Response is the attendance wire representation.
type Response struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employee_id"`
	OutletID     int64      `json:"outlet_id"`
	CheckinTime  time.Time  `json:"checkin_time"`
	CheckoutTime *time.Time `json:"checkout_time,omitempty"`
	LateMinutes  int        `json:"late_minutes"`
	LateStatus   string     `json:"late_status"`
}

func toResponse(a *Attendance) Response {
	return Response{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		OutletID:     a.OutletID,
		CheckinTime:  a.CheckinTime,
		CheckoutTime: a.CheckoutTime,
		LateMinutes:  a.LateMinutes,
		LateStatus:   string(a.LateStatus),
	}
}
