package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/selaras-pos/selaras-pos/internal/outlet"
)

// PayrollComputer derives the payroll line for a closed attendance.
// Implementations must be idempotent per attendance id.
type PayrollComputer interface {
	ComputeForAttendance(ctx context.Context, attendanceID int64) error
}

// RetryEnqueuer schedules a deferred payroll computation when the
// synchronous attempt at check-out time fails.
type RetryEnqueuer interface {
	EnqueuePayrollCompute(ctx context.Context, attendanceID int64) error
}

// Service implements check-in and check-out with lateness derivation.
type Service struct {
	repo    Repository
	outlets outlet.Repository
	payroll PayrollComputer
	retry   RetryEnqueuer
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service. payroll and retry may be nil in tests.
func NewService(repo Repository, outlets outlet.Repository, payroll PayrollComputer, retry RetryEnqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		outlets: outlets,
		payroll: payroll,
		retry:   retry,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolveLateness selects the authoritative schedule for the weekday and
// returns whole minutes of lateness. Early arrival is never negative.
func ResolveLateness(settings []outlet.Setting, weekday time.Weekday, checkin time.Time) (int, error) {
	var scheduled *outlet.Setting
	for i := range settings {
		s := &settings[i]
		if !s.AppliesTo(weekday) {
			continue
		}
		if scheduled == nil || s.CheckIn < scheduled.CheckIn {
			scheduled = s
		}
	}
	if scheduled == nil {
		return 0, ErrNoSchedule
	}
	late := int(outlet.DayMinuteOf(checkin)) - int(scheduled.CheckIn)
	if late < 0 {
		late = 0
	}
	return late, nil
}

// CheckInInput carries the check-in request.
type CheckInInput struct {
	EmployeeID int64
	OutletID   int64
	ProofPath  string
}

// CheckIn creates today's attendance with lateness fixed at this moment.
func (s *Service) CheckIn(ctx context.Context, input CheckInInput) (*Attendance, error) {
	now := s.now()

	settings, err := s.outlets.SettingsForDay(ctx, input.OutletID, now.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load outlet settings: %w", err)
	}
	late, err := ResolveLateness(settings, now.Weekday(), now)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmployeeAndDay(ctx, input.EmployeeID, now); err == nil {
		return nil, ErrDuplicateCheckin
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing attendance: %w", err)
	}

	a := Attendance{
		EmployeeID:   input.EmployeeID,
		OutletID:     input.OutletID,
		CheckinTime:  now,
		LateMinutes:  late,
		LateStatus:   ApprovalPending,
		CheckinProof: input.ProofPath,
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// CheckOut closes today's attendance and triggers payroll derivation.
// The attendance write is durable on its own: a payroll failure is
// logged and retried in the background, never rolled back into the
// check-out itself.
func (s *Service) CheckOut(ctx context.Context, employeeID int64, proofPath string) (*Attendance, error) {
	now := s.now()

	a, err := s.repo.FindByEmployeeAndDay(ctx, employeeID, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoCheckin
		}
		return nil, err
	}
	if a.CheckedOut() {
		return nil, ErrDuplicateCheckout
	}

	if err := s.repo.SetCheckout(ctx, a.ID, now, proofPath); err != nil {
		return nil, err
	}
	a.CheckoutTime = &now
	a.CheckoutProof = proofPath

	if s.payroll != nil {
		if err := s.payroll.ComputeForAttendance(ctx, a.ID); err != nil {
			s.logger.Warn("payroll derivation failed, deferring",
				slog.Int64("attendance_id", a.ID),
				slog.Any("error", err))
			if s.retry != nil {
				if err := s.retry.EnqueuePayrollCompute(ctx, a.ID); err != nil {
					s.logger.Error("enqueue payroll retry",
						slog.Int64("attendance_id", a.ID),
						slog.Any("error", err))
				}
			}
		}
	}
	return a, nil
}
