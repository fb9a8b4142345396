package attendance

import "errors"

var (
	// ErrNoSchedule rejects a check-in on a weekday with no outlet schedule.
	ErrNoSchedule = errors.New("no outlet schedule for this weekday")
	// ErrDuplicateCheckin guards one attendance per employee per day.
	ErrDuplicateCheckin = errors.New("already checked in today")
	// ErrNoCheckin rejects a check-out without a prior check-in.
	ErrNoCheckin = errors.New("not checked in today")
	// ErrDuplicateCheckout guards against closing a day twice.
	ErrDuplicateCheckout = errors.New("already checked out today")
	// ErrNotFound indicates a missing attendance row.
	ErrNotFound = errors.New("attendance not found")
)
