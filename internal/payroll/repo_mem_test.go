package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	payrolls     map[int64]*Payroll
	internals    map[int64]*InternalPayroll
	bonuses      []Bonus
	deductions   []Deduction
	batches      map[int64]*PaymentBatch
	orderTotals  map[string]int64
	names        map[int64]string
	baseSalaries map[int64]int64
	nextID       int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		payrolls:     make(map[int64]*Payroll),
		internals:    make(map[int64]*InternalPayroll),
		batches:      make(map[int64]*PaymentBatch),
		orderTotals:  make(map[string]int64),
		names:        make(map[int64]string),
		baseSalaries: make(map[int64]int64),
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func orderKey(outletID, employeeID int64, day time.Time) string {
	return fmt.Sprintf("%d:%d:%s", outletID, employeeID, shared.DayOf(day).Format("2006-01-02"))
}

func (r *memRepo) setOrders(outletID, employeeID int64, day time.Time, total int64) {
	r.orderTotals[orderKey(outletID, employeeID, day)] = total
}

func (r *memRepo) Create(ctx context.Context, p Payroll) (int64, error) {
	for _, row := range r.payrolls {
		if row.AttendanceID == p.AttendanceID {
			return 0, ErrAlreadyComputed
		}
	}
	p.ID = r.id()
	p.WorkDate = shared.DayOf(p.WorkDate)
	r.payrolls[p.ID] = &p
	return p.ID, nil
}

func (r *memRepo) FindByAttendance(ctx context.Context, attendanceID int64) (*Payroll, error) {
	for _, row := range r.payrolls {
		if row.AttendanceID == attendanceID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) UnpaidInRange(ctx context.Context, employeeID int64, period shared.Period) ([]Payroll, error) {
	var out []Payroll
	for _, row := range r.payrolls {
		if row.EmployeeID == employeeID && row.PaymentBatchID == nil && period.Contains(row.WorkDate) {
			out = append(out, *row)
		}
	}
	sortPayrolls(out)
	return out, nil
}

func (r *memRepo) LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error) {
	var start, end time.Time
	for _, row := range r.payrolls {
		if row.EmployeeID != employeeID || row.PaymentBatchID != nil {
			continue
		}
		if start.IsZero() || row.WorkDate.Before(start) {
			start = row.WorkDate
		}
		if end.IsZero() || row.WorkDate.After(end) {
			end = row.WorkDate
		}
	}
	if start.IsZero() {
		return shared.Period{}, ErrNoUnpaidPayroll
	}
	return shared.Period{Start: start, End: end}, nil
}

func (r *memRepo) AddBonusTotals(ctx context.Context, payrollID, amount int64) error {
	row, ok := r.payrolls[payrollID]
	if !ok {
		return ErrNotFound
	}
	row.TotalBonus += amount
	row.FinalSalary = row.BaseSalary + row.TotalBonus - row.TotalDeduction
	return nil
}

func (r *memRepo) AddDeductionTotals(ctx context.Context, payrollID, amount int64) error {
	row, ok := r.payrolls[payrollID]
	if !ok {
		return ErrNotFound
	}
	row.TotalDeduction += amount
	row.FinalSalary = row.BaseSalary + row.TotalBonus - row.TotalDeduction
	return nil
}

func (r *memRepo) CreateInternal(ctx context.Context, p InternalPayroll) (int64, error) {
	for _, row := range r.internals {
		if row.EmployeeID == p.EmployeeID && shared.SameDay(row.PeriodStart, p.PeriodStart) {
			return 0, ErrAlreadyComputed
		}
	}
	p.ID = r.id()
	p.PeriodStart = shared.DayOf(p.PeriodStart)
	p.PeriodEnd = shared.DayOf(p.PeriodEnd)
	r.internals[p.ID] = &p
	return p.ID, nil
}

func (r *memRepo) UnpaidInternalInRange(ctx context.Context, employeeID int64, period shared.Period) (*InternalPayroll, error) {
	for _, row := range r.internals {
		if row.EmployeeID == employeeID && row.PaymentBatchID == nil &&
			!row.PeriodStart.Before(period.Start) && !row.PeriodEnd.After(shared.DayOf(period.End)) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) LatestUnpaidInternal(ctx context.Context, employeeID int64) (*InternalPayroll, error) {
	var latest *InternalPayroll
	for _, row := range r.internals {
		if row.EmployeeID != employeeID || row.PaymentBatchID != nil {
			continue
		}
		if latest == nil || row.PeriodStart.After(latest.PeriodStart) {
			latest = row
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memRepo) InternalByBatch(ctx context.Context, batchID int64) (*InternalPayroll, error) {
	for _, row := range r.internals {
		if row.PaymentBatchID != nil && *row.PaymentBatchID == batchID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) AddInternalBonusTotals(ctx context.Context, internalID, amount int64) error {
	row, ok := r.internals[internalID]
	if !ok {
		return ErrNotFound
	}
	row.TotalBonus += amount
	row.FinalSalary = row.BaseSalary + row.TotalBonus - row.TotalDeduction
	return nil
}

func (r *memRepo) AddInternalDeductionTotals(ctx context.Context, internalID, amount int64) error {
	row, ok := r.internals[internalID]
	if !ok {
		return ErrNotFound
	}
	row.TotalDeduction += amount
	row.FinalSalary = row.BaseSalary + row.TotalBonus - row.TotalDeduction
	return nil
}

func (r *memRepo) InternalEmployeesNeedingRollforward(ctx context.Context, period shared.Period) ([]int64, error) {
	var ids []int64
	for employeeID := range r.baseSalaries {
		var hasCurrent, hasPaidPrevious bool
		for _, row := range r.internals {
			if row.EmployeeID != employeeID {
				continue
			}
			if shared.SameDay(row.PeriodStart, period.Start) {
				hasCurrent = true
			}
			if row.PeriodStart.Before(period.Start) && row.PaymentBatchID != nil {
				hasPaidPrevious = true
			}
		}
		if !hasCurrent && hasPaidPrevious {
			ids = append(ids, employeeID)
		}
	}
	return ids, nil
}

func (r *memRepo) InternalBaseSalary(ctx context.Context, employeeID int64) (int64, error) {
	salary, ok := r.baseSalaries[employeeID]
	if !ok {
		return 0, ErrNotFound
	}
	return salary, nil
}

func (r *memRepo) InsertBonus(ctx context.Context, b Bonus) (int64, error) {
	b.ID = r.id()
	b.Date = shared.DayOf(b.Date)
	r.bonuses = append(r.bonuses, b)
	return b.ID, nil
}

func (r *memRepo) InsertDeduction(ctx context.Context, d Deduction) (int64, error) {
	d.ID = r.id()
	d.Date = shared.DayOf(d.Date)
	r.deductions = append(r.deductions, d)
	return d.ID, nil
}

func (r *memRepo) BonusesForPayrolls(ctx context.Context, payrollIDs []int64) ([]Bonus, error) {
	var out []Bonus
	for _, b := range r.bonuses {
		if b.PayrollID != nil && containsID(payrollIDs, *b.PayrollID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) DeductionsForPayrolls(ctx context.Context, payrollIDs []int64) ([]Deduction, error) {
	var out []Deduction
	for _, d := range r.deductions {
		if d.PayrollID != nil && containsID(payrollIDs, *d.PayrollID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memRepo) BonusesForInternal(ctx context.Context, internalID int64) ([]Bonus, error) {
	var out []Bonus
	for _, b := range r.bonuses {
		if b.InternalPayrollID != nil && *b.InternalPayrollID == internalID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) DeductionsForInternal(ctx context.Context, internalID int64) ([]Deduction, error) {
	var out []Deduction
	for _, d := range r.deductions {
		if d.InternalPayrollID != nil && *d.InternalPayrollID == internalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memRepo) CreateBatchLinking(ctx context.Context, batch PaymentBatch, payrollIDs []int64, internalID *int64) (int64, error) {
	for _, id := range payrollIDs {
		row, ok := r.payrolls[id]
		if !ok || row.PaymentBatchID != nil {
			return 0, fmt.Errorf("payroll %d not linkable", id)
		}
	}
	batch.ID = r.id()
	r.batches[batch.ID] = &batch
	for _, id := range payrollIDs {
		batchID := batch.ID
		r.payrolls[id].PaymentBatchID = &batchID
	}
	if internalID != nil {
		row, ok := r.internals[*internalID]
		if !ok || row.PaymentBatchID != nil {
			return 0, fmt.Errorf("internal payroll %d not linkable", *internalID)
		}
		batchID := batch.ID
		row.PaymentBatchID = &batchID
	}
	return batch.ID, nil
}

func (r *memRepo) LatestBatch(ctx context.Context, employeeID int64) (*PaymentBatch, error) {
	var latest *PaymentBatch
	for _, b := range r.batches {
		if b.EmployeeID != employeeID {
			continue
		}
		if latest == nil || b.ID > latest.ID {
			latest = b
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memRepo) LinesByBatch(ctx context.Context, batchID int64) ([]Payroll, error) {
	var out []Payroll
	for _, row := range r.payrolls {
		if row.PaymentBatchID != nil && *row.PaymentBatchID == batchID {
			out = append(out, *row)
		}
	}
	sortPayrolls(out)
	return out, nil
}

func (r *memRepo) SumOrderTotals(ctx context.Context, outletID, employeeID int64, day time.Time) (int64, error) {
	return r.orderTotals[orderKey(outletID, employeeID, day)], nil
}

func (r *memRepo) EmployeeName(ctx context.Context, employeeID int64) (string, error) {
	if name, ok := r.names[employeeID]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

func sortPayrolls(rows []Payroll) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].WorkDate.Before(rows[j-1].WorkDate); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// stubOutlets classifies employees and serves outlet settings.
type stubOutlets struct {
	assigned map[int64]int64 // employee -> outlet
	outlets  map[int64]*outlet.Outlet
	settings map[int64][]outlet.Setting
}

func newStubOutlets() *stubOutlets {
	return &stubOutlets{
		assigned: make(map[int64]int64),
		outlets:  make(map[int64]*outlet.Outlet),
		settings: make(map[int64][]outlet.Setting),
	}
}

func (s *stubOutlets) Get(ctx context.Context, id int64) (*outlet.Outlet, error) {
	o, ok := s.outlets[id]
	if !ok {
		return nil, outlet.ErrNotFound
	}
	return o, nil
}

func (s *stubOutlets) Settings(ctx context.Context, outletID int64) ([]outlet.Setting, error) {
	return s.settings[outletID], nil
}

func (s *stubOutlets) SettingsForDay(ctx context.Context, outletID int64, day time.Weekday) ([]outlet.Setting, error) {
	var out []outlet.Setting
	for _, st := range s.settings[outletID] {
		if st.AppliesTo(day) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubOutlets) OutletForEmployee(ctx context.Context, employeeID int64) (*outlet.Outlet, error) {
	outletID, ok := s.assigned[employeeID]
	if !ok {
		return nil, outlet.ErrNotFound
	}
	return s.Get(ctx, outletID)
}

// stubAttendance serves fixed attendance rows.
type stubAttendance struct {
	rows    map[int64]*attendance.Attendance
	summary attendance.Summary
}

func newStubAttendance() *stubAttendance {
	return &stubAttendance{rows: make(map[int64]*attendance.Attendance)}
}

func (s *stubAttendance) Create(ctx context.Context, a attendance.Attendance) (int64, error) {
	return 0, nil
}

func (s *stubAttendance) Get(ctx context.Context, id int64) (*attendance.Attendance, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, attendance.ErrNotFound
	}
	return row, nil
}

func (s *stubAttendance) FindByEmployeeAndDay(ctx context.Context, employeeID int64, day time.Time) (*attendance.Attendance, error) {
	return nil, attendance.ErrNotFound
}

func (s *stubAttendance) SetCheckout(ctx context.Context, id int64, at time.Time, proofPath string) error {
	return nil
}

func (s *stubAttendance) Summary(ctx context.Context, employeeID int64, period shared.Period) (attendance.Summary, error) {
	return s.summary, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}
