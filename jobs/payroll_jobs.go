package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/selaras-pos/selaras-pos/internal/jobs"
	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// PayrollComputeJob retries payroll derivation for a closed attendance.
type PayrollComputeJob struct {
	computer *payroll.Computer
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
}

// NewPayrollComputeJob builds PayrollComputeJob.
func NewPayrollComputeJob(computer *payroll.Computer, metrics *jobmetrics.Metrics, logger *slog.Logger) *PayrollComputeJob {
	return &PayrollComputeJob{computer: computer, metrics: metrics, logger: logger}
}

// Handle processes TaskPayrollCompute tasks. The computation is
// idempotent per attendance, so at-least-once delivery is safe.
func (j *PayrollComputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskPayrollCompute)
	var payload PayrollComputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if err := j.computer.ComputeForAttendance(ctx, payload.AttendanceID); err != nil {
		if errors.Is(err, payroll.ErrOutletSettingsNotFound) {
			// Retrying cannot help until someone fixes the outlet setup.
			j.logger.Error("payroll compute blocked on outlet settings",
				slog.Int64("attendance_id", payload.AttendanceID))
			return tracker.End(asynq.SkipRetry)
		}
		return tracker.End(err)
	}
	j.logger.Info("deferred payroll computed", slog.Int64("attendance_id", payload.AttendanceID))
	return tracker.End(nil)
}

// RollforwardRepository is the slice of the payroll repository the
// roll-forward job needs.
type RollforwardRepository interface {
	InternalEmployeesNeedingRollforward(ctx context.Context, period shared.Period) ([]int64, error)
	InternalBaseSalary(ctx context.Context, employeeID int64) (int64, error)
	CreateInternal(ctx context.Context, p payroll.InternalPayroll) (int64, error)
}

// InternalRollforwardJob opens the current month's payroll row for
// internal employees whose previous period is already paid. Idempotent
// per employee; one employee's failure never aborts the batch.
type InternalRollforwardJob struct {
	repo    RollforwardRepository
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewInternalRollforwardJob builds InternalRollforwardJob.
func NewInternalRollforwardJob(repo RollforwardRepository, metrics *jobmetrics.Metrics, logger *slog.Logger) *InternalRollforwardJob {
	return &InternalRollforwardJob{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (j *InternalRollforwardJob) WithClock(now func() time.Time) *InternalRollforwardJob {
	j.now = now
	return j
}

// Handle processes TaskInternalRollforward tasks.
func (j *InternalRollforwardJob) Handle(ctx context.Context, _ *asynq.Task) error {
	return j.Run(ctx)
}

// Run performs one roll-forward pass.
func (j *InternalRollforwardJob) Run(ctx context.Context) error {
	tracker := j.metrics.Track(TaskInternalRollforward)
	period := shared.MonthOf(j.now())
	ids, err := j.repo.InternalEmployeesNeedingRollforward(ctx, period)
	if err != nil {
		return tracker.End(err)
	}

	var created int
	for _, employeeID := range ids {
		if err := j.rollForward(ctx, employeeID, period); err != nil {
			j.logger.Error("roll payroll period forward",
				slog.Int64("employee_id", employeeID),
				slog.Any("error", err))
			continue
		}
		created++
	}
	j.metrics.AddSkipped(TaskInternalRollforward, len(ids)-created)
	j.logger.Info("internal payroll roll-forward done",
		slog.Int("eligible", len(ids)),
		slog.Int("created", created))
	return tracker.End(nil)
}

func (j *InternalRollforwardJob) rollForward(ctx context.Context, employeeID int64, period shared.Period) error {
	base, err := j.repo.InternalBaseSalary(ctx, employeeID)
	if err != nil {
		return err
	}
	_, err = j.repo.CreateInternal(ctx, payroll.InternalPayroll{
		EmployeeID:  employeeID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		BaseSalary:  base,
		FinalSalary: base,
	})
	if errors.Is(err, payroll.ErrAlreadyComputed) {
		// Another worker got there first; the row exists.
		return nil
	}
	return err
}
