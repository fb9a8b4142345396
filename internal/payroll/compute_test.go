package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/outlet"
)

func TestTargetBonus(t *testing.T) {
	cases := []struct {
		name     string
		sales    int64
		target   int64
		bonus    int64
		exceeded int64
	}{
		{"below target", 9_500_000, 10_000_000, 0, 0},
		{"exactly on target", 10_000_000, 10_000_000, 0, 0},
		{"under one step", 10_099_999, 10_000_000, 0, 99_999},
		{"exactly one step", 10_100_000, 10_000_000, 5000, 100_000},
		{"partial step floors", 10_250_000, 10_000_000, 10_000, 250_000},
		{"many steps", 11_000_000, 10_000_000, 50_000, 1_000_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bonus, exceeded := TargetBonus(tc.sales, tc.target)
			require.Equal(t, tc.bonus, bonus)
			require.Equal(t, tc.exceeded, exceeded)
		})
	}
}

func TestLateDeduction(t *testing.T) {
	require.EqualValues(t, 0, LateDeduction(0))
	require.EqualValues(t, 0, LateDeduction(-3))
	require.EqualValues(t, 1000, LateDeduction(1))
	require.EqualValues(t, 45_000, LateDeduction(45))
}

func computeFixture(t *testing.T) (*Computer, *memRepo, *stubAttendance, *stubOutlets) {
	t.Helper()
	repo := newMemRepo()
	atts := newStubAttendance()
	outs := newStubOutlets()
	outs.outlets[1] = &outlet.Outlet{ID: 1, Name: "Central", IncomeTarget: 10_000_000, IsActive: true}
	outs.settings[1] = []outlet.Setting{{
		ID:       1,
		OutletID: 1,
		CheckIn:  8 * 60,
		CheckOut: 17 * 60,
		Days:     []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Salary:   100_000,
		IsActive: true,
	}}
	return NewComputer(repo, atts, outs, testLogger()), repo, atts, outs
}

func TestComputeForAttendance(t *testing.T) {
	ctx := context.Background()
	computer, repo, atts, _ := computeFixture(t)

	checkin := time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC)
	atts.rows[7] = &attendance.Attendance{
		ID: 7, EmployeeID: 11, OutletID: 1, CheckinTime: checkin, LateMinutes: 45,
	}
	repo.setOrders(1, 11, checkin, 10_250_000)

	require.NoError(t, computer.ComputeForAttendance(ctx, 7))

	line, err := repo.FindByAttendance(ctx, 7)
	require.NoError(t, err)
	require.EqualValues(t, 100_000, line.BaseSalary)
	require.EqualValues(t, 10_000, line.TotalBonus)
	require.EqualValues(t, 45_000, line.TotalDeduction)
	require.Equal(t, line.BaseSalary+line.TotalBonus-line.TotalDeduction, line.FinalSalary)

	bonuses, err := repo.BonusesForPayrolls(ctx, []int64{line.ID})
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	require.Equal(t, BonusTargetAchievement, bonuses[0].Type)
	require.EqualValues(t, 250_000, bonuses[0].Reference["exceeded"])

	deductions, err := repo.DeductionsForPayrolls(ctx, []int64{line.ID})
	require.NoError(t, err)
	require.Len(t, deductions, 1)
	require.Equal(t, DeductionLate, deductions[0].Type)
}

func TestComputeForAttendanceIdempotent(t *testing.T) {
	ctx := context.Background()
	computer, repo, atts, _ := computeFixture(t)

	checkin := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	atts.rows[7] = &attendance.Attendance{ID: 7, EmployeeID: 11, OutletID: 1, CheckinTime: checkin}
	repo.setOrders(1, 11, checkin, 10_100_000)

	require.NoError(t, computer.ComputeForAttendance(ctx, 7))
	require.NoError(t, computer.ComputeForAttendance(ctx, 7))

	require.Len(t, repo.payrolls, 1)
	require.Len(t, repo.bonuses, 1)
}

func TestComputeForAttendanceNoSettings(t *testing.T) {
	ctx := context.Background()
	computer, _, atts, outs := computeFixture(t)
	outs.settings[1] = nil

	atts.rows[7] = &attendance.Attendance{
		ID: 7, EmployeeID: 11, OutletID: 1,
		CheckinTime: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}

	err := computer.ComputeForAttendance(ctx, 7)
	require.ErrorIs(t, err, ErrOutletSettingsNotFound)
}

func TestComputeForAttendanceNoBonusBelowTarget(t *testing.T) {
	ctx := context.Background()
	computer, repo, atts, _ := computeFixture(t)

	checkin := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	atts.rows[9] = &attendance.Attendance{ID: 9, EmployeeID: 11, OutletID: 1, CheckinTime: checkin}
	repo.setOrders(1, 11, checkin, 4_000_000)

	require.NoError(t, computer.ComputeForAttendance(ctx, 9))

	line, err := repo.FindByAttendance(ctx, 9)
	require.NoError(t, err)
	require.EqualValues(t, 0, line.TotalBonus)
	require.EqualValues(t, 100_000, line.FinalSalary)
	require.Empty(t, repo.bonuses)
	require.Empty(t, repo.deductions)
}
