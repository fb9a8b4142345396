package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Line is the employee-type-independent view of one unpaid payroll
// entry: a daily row for outlet employees, the monthly aggregate row
// for internal employees.
type Line struct {
	ID       int64
	Internal bool
	WorkDate time.Time
	// PeriodEnd closes the internal row's month; zero for daily lines.
	PeriodEnd      time.Time
	BaseSalary     int64
	TotalBonus     int64
	TotalDeduction int64
	FinalSalary    int64
}

// Strategy abstracts the outlet/internal employee split. Selected once
// per employee lookup, then drives period defaults, line access and
// manual adjustments.
type Strategy interface {
	DefaultPeriod(now time.Time) shared.Period
	UnpaidLines(ctx context.Context, employeeID int64, period shared.Period) ([]Line, error)
	LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error)
	Details(ctx context.Context, lines []Line) ([]Bonus, []Deduction, error)
	AddManualBonus(ctx context.Context, line Line, amount int64, description string, date time.Time) error
	AddManualDeduction(ctx context.Context, line Line, amount int64, description string, date time.Time) error
	LinkBatch(ctx context.Context, batch PaymentBatch, lines []Line) (int64, error)
	LinesByBatch(ctx context.Context, batchID int64) ([]Line, error)
}

// Selector resolves the strategy for an employee. Internal employees
// are the ones with no outlet assignment.
type Selector struct {
	outlets outlet.Repository
	repo    Repository
}

// NewSelector builds Selector.
func NewSelector(outlets outlet.Repository, repo Repository) *Selector {
	return &Selector{outlets: outlets, repo: repo}
}

// For returns the strategy matching the employee's classification.
func (s *Selector) For(ctx context.Context, employeeID int64) (Strategy, error) {
	_, err := s.outlets.OutletForEmployee(ctx, employeeID)
	switch {
	case err == nil:
		return &OutletStrategy{repo: s.repo}, nil
	case errors.Is(err, outlet.ErrNotFound):
		return &InternalStrategy{repo: s.repo}, nil
	default:
		return nil, fmt.Errorf("classify employee: %w", err)
	}
}

// OutletStrategy operates on daily payroll lines, paid weekly.
type OutletStrategy struct {
	repo Repository
}

func (s *OutletStrategy) DefaultPeriod(now time.Time) shared.Period {
	return shared.WeekOf(now)
}

func (s *OutletStrategy) UnpaidLines(ctx context.Context, employeeID int64, period shared.Period) ([]Line, error) {
	rows, err := s.repo.UnpaidInRange(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	return outletLines(rows), nil
}

func (s *OutletStrategy) LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error) {
	return s.repo.LatestUnpaidPeriod(ctx, employeeID)
}

func (s *OutletStrategy) Details(ctx context.Context, lines []Line) ([]Bonus, []Deduction, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	bonuses, err := s.repo.BonusesForPayrolls(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	deductions, err := s.repo.DeductionsForPayrolls(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return bonuses, deductions, nil
}

func (s *OutletStrategy) AddManualBonus(ctx context.Context, line Line, amount int64, description string, date time.Time) error {
	id := line.ID
	if _, err := s.repo.InsertBonus(ctx, Bonus{
		PayrollID:   &id,
		Type:        BonusManual,
		Amount:      amount,
		Description: description,
		Date:        date,
	}); err != nil {
		return err
	}
	return s.repo.AddBonusTotals(ctx, id, amount)
}

func (s *OutletStrategy) AddManualDeduction(ctx context.Context, line Line, amount int64, description string, date time.Time) error {
	id := line.ID
	if _, err := s.repo.InsertDeduction(ctx, Deduction{
		PayrollID:   &id,
		Type:        DeductionOther,
		Amount:      amount,
		Description: description,
		Date:        date,
	}); err != nil {
		return err
	}
	return s.repo.AddDeductionTotals(ctx, id, amount)
}

func (s *OutletStrategy) LinkBatch(ctx context.Context, batch PaymentBatch, lines []Line) (int64, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return s.repo.CreateBatchLinking(ctx, batch, ids, nil)
}

func (s *OutletStrategy) LinesByBatch(ctx context.Context, batchID int64) ([]Line, error) {
	rows, err := s.repo.LinesByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return outletLines(rows), nil
}

// InternalStrategy operates on the single monthly internal payroll row.
type InternalStrategy struct {
	repo Repository
}

func (s *InternalStrategy) DefaultPeriod(now time.Time) shared.Period {
	return shared.MonthOf(now)
}

func (s *InternalStrategy) UnpaidLines(ctx context.Context, employeeID int64, period shared.Period) ([]Line, error) {
	row, err := s.repo.UnpaidInternalInRange(ctx, employeeID, period)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []Line{internalLine(row)}, nil
}

func (s *InternalStrategy) LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error) {
	row, err := s.repo.LatestUnpaidInternal(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return shared.Period{}, ErrNoUnpaidPayroll
		}
		return shared.Period{}, err
	}
	return shared.Period{Start: shared.DayOf(row.PeriodStart), End: shared.DayOf(row.PeriodEnd)}, nil
}

func (s *InternalStrategy) Details(ctx context.Context, lines []Line) ([]Bonus, []Deduction, error) {
	var bonuses []Bonus
	var deductions []Deduction
	for _, l := range lines {
		b, err := s.repo.BonusesForInternal(ctx, l.ID)
		if err != nil {
			return nil, nil, err
		}
		d, err := s.repo.DeductionsForInternal(ctx, l.ID)
		if err != nil {
			return nil, nil, err
		}
		bonuses = append(bonuses, b...)
		deductions = append(deductions, d...)
	}
	return bonuses, deductions, nil
}

func (s *InternalStrategy) AddManualBonus(ctx context.Context, line Line, amount int64, description string, date time.Time) error {
	id := line.ID
	if _, err := s.repo.InsertBonus(ctx, Bonus{
		InternalPayrollID: &id,
		Type:              BonusManual,
		Amount:            amount,
		Description:       description,
		Date:              date,
	}); err != nil {
		return err
	}
	return s.repo.AddInternalBonusTotals(ctx, id, amount)
}

func (s *InternalStrategy) AddManualDeduction(ctx context.Context, line Line, amount int64, description string, date time.Time) error {
	id := line.ID
	if _, err := s.repo.InsertDeduction(ctx, Deduction{
		InternalPayrollID: &id,
		Type:              DeductionOther,
		Amount:            amount,
		Description:       description,
		Date:              date,
	}); err != nil {
		return err
	}
	return s.repo.AddInternalDeductionTotals(ctx, id, amount)
}

func (s *InternalStrategy) LinkBatch(ctx context.Context, batch PaymentBatch, lines []Line) (int64, error) {
	if len(lines) != 1 {
		return 0, fmt.Errorf("internal payroll expects exactly one line, got %d", len(lines))
	}
	id := lines[0].ID
	return s.repo.CreateBatchLinking(ctx, batch, nil, &id)
}

func (s *InternalStrategy) LinesByBatch(ctx context.Context, batchID int64) ([]Line, error) {
	row, err := s.repo.InternalByBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []Line{internalLine(row)}, nil
}

func outletLines(rows []Payroll) []Line {
	out := make([]Line, len(rows))
	for i, p := range rows {
		out[i] = Line{
			ID:             p.ID,
			WorkDate:       p.WorkDate,
			BaseSalary:     p.BaseSalary,
			TotalBonus:     p.TotalBonus,
			TotalDeduction: p.TotalDeduction,
			FinalSalary:    p.FinalSalary,
		}
	}
	return out
}

func internalLine(p *InternalPayroll) Line {
	return Line{
		ID:             p.ID,
		Internal:       true,
		WorkDate:       p.PeriodStart,
		PeriodEnd:      p.PeriodEnd,
		BaseSalary:     p.BaseSalary,
		TotalBonus:     p.TotalBonus,
		TotalDeduction: p.TotalDeduction,
		FinalSalary:    p.FinalSalary,
	}
}
