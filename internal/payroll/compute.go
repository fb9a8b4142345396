package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Computer turns one closed attendance into a payroll line: base salary
// from the outlet setting, a target-achievement bonus from the day's
// sales, and a lateness deduction.
type Computer struct {
	repo        Repository
	attendances attendance.Repository
	outlets     outlet.Repository
	logger      *slog.Logger
}

// NewComputer builds Computer.
func NewComputer(repo Repository, attendances attendance.Repository, outlets outlet.Repository, logger *slog.Logger) *Computer {
	return &Computer{repo: repo, attendances: attendances, outlets: outlets, logger: logger}
}

// ComputeForAttendance derives and persists the payroll line for one
// attendance. Idempotent: a second call for the same attendance is a
// no-op.
func (c *Computer) ComputeForAttendance(ctx context.Context, attendanceID int64) error {
	if _, err := c.repo.FindByAttendance(ctx, attendanceID); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check existing payroll: %w", err)
	}

	att, err := c.attendances.Get(ctx, attendanceID)
	if err != nil {
		return fmt.Errorf("load attendance: %w", err)
	}

	settings, err := c.outlets.Settings(ctx, att.OutletID)
	if err != nil {
		return fmt.Errorf("load outlet settings: %w", err)
	}
	if len(settings) == 0 {
		return ErrOutletSettingsNotFound
	}
	baseSalary := settings[0].Salary

	out, err := c.outlets.Get(ctx, att.OutletID)
	if err != nil {
		return fmt.Errorf("load outlet: %w", err)
	}

	ordersTotal, err := c.repo.SumOrderTotals(ctx, att.OutletID, att.EmployeeID, att.CheckinTime)
	if err != nil {
		return fmt.Errorf("sum order totals: %w", err)
	}

	bonus, exceeded := TargetBonus(ordersTotal, out.IncomeTarget)
	deduction := LateDeduction(att.LateMinutes)
	workDate := shared.DayOf(att.CheckinTime)

	line := Payroll{
		EmployeeID:     att.EmployeeID,
		OutletID:       att.OutletID,
		AttendanceID:   att.ID,
		BaseSalary:     baseSalary,
		TotalBonus:     bonus,
		TotalDeduction: deduction,
		FinalSalary:    baseSalary + bonus - deduction,
		WorkDate:       workDate,
	}
	id, err := c.repo.Create(ctx, line)
	if err != nil {
		if errors.Is(err, ErrAlreadyComputed) {
			// Lost the race to a concurrent computation; the row exists.
			return nil
		}
		return fmt.Errorf("create payroll: %w", err)
	}

	if bonus > 0 {
		_, err = c.repo.InsertBonus(ctx, Bonus{
			PayrollID:   &id,
			Type:        BonusTargetAchievement,
			Amount:      bonus,
			Description: "Daily sales target exceeded",
			Reference: map[string]any{
				"totalSales": ordersTotal,
				"target":     out.IncomeTarget,
				"exceeded":   exceeded,
			},
			Date: workDate,
		})
		if err != nil {
			return fmt.Errorf("insert target bonus: %w", err)
		}
	}
	if deduction > 0 {
		_, err = c.repo.InsertDeduction(ctx, Deduction{
			PayrollID:   &id,
			Type:        DeductionLate,
			Amount:      deduction,
			Description: fmt.Sprintf("Late check-in (%d minutes)", att.LateMinutes),
			Reference: map[string]any{
				"lateMinutes":   att.LateMinutes,
				"ratePerMinute": LateDeductionPerMinute,
			},
			Date: workDate,
		})
		if err != nil {
			return fmt.Errorf("insert late deduction: %w", err)
		}
	}

	c.logger.Info("payroll line computed",
		slog.Int64("payroll_id", id),
		slog.Int64("employee_id", att.EmployeeID),
		slog.Int64("final_salary", line.FinalSalary))
	return nil
}
