package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

type stubRollforwardRepo struct {
	eligible []int64
	salaries map[int64]int64
	existing map[int64]bool
	created  []payroll.InternalPayroll
}

func (s *stubRollforwardRepo) InternalEmployeesNeedingRollforward(ctx context.Context, period shared.Period) ([]int64, error) {
	return s.eligible, nil
}

func (s *stubRollforwardRepo) InternalBaseSalary(ctx context.Context, employeeID int64) (int64, error) {
	salary, ok := s.salaries[employeeID]
	if !ok {
		return 0, payroll.ErrNotFound
	}
	return salary, nil
}

func (s *stubRollforwardRepo) CreateInternal(ctx context.Context, p payroll.InternalPayroll) (int64, error) {
	if s.existing[p.EmployeeID] {
		return 0, payroll.ErrAlreadyComputed
	}
	s.created = append(s.created, p)
	return int64(len(s.created)), nil
}

func TestInternalRollforward(t *testing.T) {
	repo := &stubRollforwardRepo{
		eligible: []int64{21, 22},
		salaries: map[int64]int64{21: 5_000_000, 22: 6_500_000},
		existing: map[int64]bool{},
	}
	job := NewInternalRollforwardJob(repo, nil, slog.Default()).
		WithClock(func() time.Time { return time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC) })

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, repo.created, 2)

	row := repo.created[0]
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), row.PeriodStart)
	require.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), row.PeriodEnd)
	require.EqualValues(t, 5_000_000, row.BaseSalary)
	require.Equal(t, row.BaseSalary, row.FinalSalary)
	require.EqualValues(t, 0, row.TotalBonus)
	require.EqualValues(t, 0, row.TotalDeduction)
}

func TestInternalRollforwardIdempotent(t *testing.T) {
	repo := &stubRollforwardRepo{
		eligible: []int64{21},
		salaries: map[int64]int64{21: 5_000_000},
		existing: map[int64]bool{21: true},
	}
	job := NewInternalRollforwardJob(repo, nil, slog.Default())

	// A concurrent worker already created the row; that is not an error.
	require.NoError(t, job.Run(context.Background()))
	require.Empty(t, repo.created)
}

func TestInternalRollforwardContinuesAfterFailure(t *testing.T) {
	repo := &stubRollforwardRepo{
		eligible: []int64{21, 22},
		salaries: map[int64]int64{22: 6_500_000}, // 21 has no salary row
		existing: map[int64]bool{},
	}
	job := NewInternalRollforwardJob(repo, nil, slog.Default())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, repo.created, 1)
	require.EqualValues(t, 22, repo.created[0].EmployeeID)
}

func TestPayrollComputePayloadRoundTrip(t *testing.T) {
	task, err := NewPayrollComputeTask(42)
	require.NoError(t, err)
	require.Equal(t, TaskPayrollCompute, task.Type())

	var payload PayrollComputePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.EqualValues(t, 42, payload.AttendanceID)
}
