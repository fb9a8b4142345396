package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Aggregator groups unpaid payroll lines into periods, applies manual
// adjustments and produces payment batches and slips.
type Aggregator struct {
	repo        Repository
	selector    *Selector
	attendances attendance.Repository
	logger      *slog.Logger
	now         func() time.Time
}

// NewAggregator builds Aggregator.
func NewAggregator(repo Repository, selector *Selector, attendances attendance.Repository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		repo:        repo,
		selector:    selector,
		attendances: attendances,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// resolveLines applies the period fallback chain: explicit dates win and
// never fall back; otherwise the employee-type default period is tried,
// then the latest span that still has unlinked lines.
func (a *Aggregator) resolveLines(ctx context.Context, strategy Strategy, employeeID int64, explicit *shared.Period) ([]Line, shared.Period, error) {
	if explicit != nil {
		lines, err := strategy.UnpaidLines(ctx, employeeID, *explicit)
		if err != nil {
			return nil, shared.Period{}, err
		}
		if len(lines) == 0 {
			return nil, shared.Period{}, ErrNoUnpaidPayroll
		}
		return lines, *explicit, nil
	}

	period := strategy.DefaultPeriod(a.now())
	lines, err := strategy.UnpaidLines(ctx, employeeID, period)
	if err != nil {
		return nil, shared.Period{}, err
	}
	if len(lines) > 0 {
		return lines, period, nil
	}

	period, err = strategy.LatestUnpaidPeriod(ctx, employeeID)
	if err != nil {
		return nil, shared.Period{}, err
	}
	lines, err = strategy.UnpaidLines(ctx, employeeID, period)
	if err != nil {
		return nil, shared.Period{}, err
	}
	if len(lines) == 0 {
		return nil, shared.Period{}, ErrNoUnpaidPayroll
	}
	return lines, period, nil
}

// Detail returns the aggregated unpaid payroll view for one employee.
func (a *Aggregator) Detail(ctx context.Context, employeeID int64, explicit *shared.Period) (*DetailResponse, error) {
	strategy, err := a.selector.For(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	lines, period, err := a.resolveLines(ctx, strategy, employeeID, explicit)
	if err != nil {
		return nil, err
	}
	return a.buildDetail(ctx, strategy, employeeID, lines, period, nil)
}

// UpdateInput carries manual payroll adjustments.
type UpdateInput struct {
	EmployeeID       int64
	Period           *shared.Period
	ManualBonus      int64
	ManualDeductions []ManualDeductionInput
}

// ManualDeductionInput is one dated manual deduction.
type ManualDeductionInput struct {
	Date        time.Time
	Amount      int64
	Description string
}

// Update applies a manual bonus to the last line of the resolved period
// and matches each manual deduction to the line of its calendar date.
// Deductions with no matching line are skipped with a warning and
// reported back to the caller.
func (a *Aggregator) Update(ctx context.Context, input UpdateInput) (*DetailResponse, error) {
	strategy, err := a.selector.For(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	lines, period, err := a.resolveLines(ctx, strategy, input.EmployeeID, input.Period)
	if err != nil {
		return nil, err
	}

	if input.ManualBonus > 0 {
		last := lines[len(lines)-1]
		if err := strategy.AddManualBonus(ctx, last, input.ManualBonus, "Manual bonus", last.WorkDate); err != nil {
			return nil, fmt.Errorf("apply manual bonus: %w", err)
		}
	}

	var skipped []SkippedDeduction
	for _, d := range input.ManualDeductions {
		target, ok := matchLine(lines, d.Date)
		if !ok {
			a.logger.Warn("manual deduction date matches no payroll line",
				slog.Int64("employee_id", input.EmployeeID),
				slog.Time("date", d.Date),
				slog.Int64("amount", d.Amount))
			skipped = append(skipped, SkippedDeduction{
				Date:   d.Date.Format("2006-01-02"),
				Amount: d.Amount,
				Reason: "no payroll line on this date",
			})
			continue
		}
		if err := strategy.AddManualDeduction(ctx, target, d.Amount, d.Description, d.Date); err != nil {
			return nil, fmt.Errorf("apply manual deduction: %w", err)
		}
	}

	// Re-read so totals reflect the adjustments just applied.
	lines, err = strategy.UnpaidLines(ctx, input.EmployeeID, period)
	if err != nil {
		return nil, err
	}
	return a.buildDetail(ctx, strategy, input.EmployeeID, lines, period, skipped)
}

// matchLine finds the line whose work date equals day. The internal
// monthly row absorbs any date inside its own period, nothing beyond it.
func matchLine(lines []Line, day time.Time) (Line, bool) {
	for _, l := range lines {
		if l.Internal {
			p := shared.Period{Start: shared.DayOf(l.WorkDate), End: shared.DayOf(l.PeriodEnd)}
			if p.Contains(day) {
				return l, true
			}
			continue
		}
		if shared.SameDay(l.WorkDate, day) {
			return l, true
		}
	}
	return Line{}, false
}

// CreatePayment batches every unpaid line of the current (or latest
// unpaid) period into a PAID payment batch and returns the slip.
func (a *Aggregator) CreatePayment(ctx context.Context, employeeID int64) (*SlipResponse, error) {
	strategy, err := a.selector.For(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	lines, period, err := a.resolveLines(ctx, strategy, employeeID, nil)
	if err != nil {
		return nil, err
	}

	var base, bonus, deduction, final int64
	for _, l := range lines {
		base += l.BaseSalary
		bonus += l.TotalBonus
		deduction += l.TotalDeduction
		final += l.FinalSalary
	}

	now := a.now()
	ref := uuid.NewString()
	batch := PaymentBatch{
		EmployeeID:       employeeID,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		TotalBaseSalary:  base,
		TotalBonus:       bonus,
		TotalDeduction:   deduction,
		TotalFinalSalary: final,
		Status:           BatchPaid,
		PaidAt:           &now,
		PaymentReference: &ref,
	}
	batchID, err := strategy.LinkBatch(ctx, batch, lines)
	if err != nil {
		return nil, fmt.Errorf("create payment batch: %w", err)
	}
	a.logger.Info("payment batch created",
		slog.Int64("batch_id", batchID),
		slog.Int64("employee_id", employeeID),
		slog.Int64("total", final))

	return a.Slip(ctx, employeeID, &period)
}

// Slip builds the payment slip: unpaid lines first (PREVIEW), otherwise
// reconstructed from the employee's latest payment batch.
func (a *Aggregator) Slip(ctx context.Context, employeeID int64, explicit *shared.Period) (*SlipResponse, error) {
	strategy, err := a.selector.For(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	status := SlipStatusPreview
	lines, period, err := a.resolveLines(ctx, strategy, employeeID, explicit)
	if err != nil {
		if !errors.Is(err, ErrNoUnpaidPayroll) {
			return nil, err
		}
		batch, err := a.repo.LatestBatch(ctx, employeeID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNoPayrollData
			}
			return nil, err
		}
		lines, err = strategy.LinesByBatch(ctx, batch.ID)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			return nil, ErrNoPayrollData
		}
		status = string(batch.Status)
		period = shared.Period{Start: shared.DayOf(batch.PeriodStart), End: shared.DayOf(batch.PeriodEnd)}
	}

	detail, err := a.buildDetail(ctx, strategy, employeeID, lines, period, nil)
	if err != nil {
		return nil, err
	}

	breakdown := map[string]int64{}
	for _, d := range detail.Deductions {
		breakdown[d.Type] += d.Amount
	}

	summary, err := a.attendances.Summary(ctx, employeeID, period)
	if err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}

	return &SlipResponse{
		DetailResponse:     *detail,
		Status:             status,
		DeductionBreakdown: breakdown,
		Attendance:         summary,
	}, nil
}

func (a *Aggregator) buildDetail(ctx context.Context, strategy Strategy, employeeID int64, lines []Line, period shared.Period, skipped []SkippedDeduction) (*DetailResponse, error) {
	name, err := a.repo.EmployeeName(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("employee name: %w", err)
	}

	var base, bonus, deduction, final int64
	for _, l := range lines {
		base += l.BaseSalary
		bonus += l.TotalBonus
		deduction += l.TotalDeduction
		final += l.FinalSalary
	}

	bonuses, deductions, err := strategy.Details(ctx, lines)
	if err != nil {
		return nil, err
	}

	var manualBonus int64
	bonusEntries := make([]EntryResponse, 0, len(bonuses))
	for _, b := range bonuses {
		if b.Type == BonusManual {
			manualBonus += b.Amount
		}
		bonusEntries = append(bonusEntries, EntryResponse{
			ID:          b.ID,
			Type:        string(b.Type),
			Date:        b.Date.Format("2006-01-02"),
			Amount:      b.Amount,
			Description: b.Description,
		})
	}
	deductionEntries := make([]EntryResponse, 0, len(deductions))
	for _, d := range deductions {
		deductionEntries = append(deductionEntries, EntryResponse{
			ID:          d.ID,
			Type:        string(d.Type),
			Date:        d.Date.Format("2006-01-02"),
			Amount:      d.Amount,
			Description: d.Description,
		})
	}

	return &DetailResponse{
		EmployeeID:         employeeID,
		EmployeeName:       name,
		Period:             period.Label(),
		TotalBaseSalary:    base,
		TotalBonus:         bonus,
		ManualBonus:        manualBonus,
		TotalDeduction:     deduction,
		FinalAmount:        final,
		FinalAmountDisplay: shared.FormatRupiah(final),
		Bonuses:            bonusEntries,
		Deductions:         deductionEntries,
		SkippedDeductions:  skipped,
	}, nil
}
