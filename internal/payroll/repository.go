package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selaras-pos/selaras-pos/internal/platform/db"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Repository persists payroll lines, detail rows and payment batches.
type Repository interface {
	Create(ctx context.Context, p Payroll) (int64, error)
	FindByAttendance(ctx context.Context, attendanceID int64) (*Payroll, error)
	UnpaidInRange(ctx context.Context, employeeID int64, period shared.Period) ([]Payroll, error)
	// LatestUnpaidPeriod is the min/max work-date span of the most recent
	// unlinked lines, the fallback for callers without an explicit window.
	LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error)
	AddBonusTotals(ctx context.Context, payrollID, amount int64) error
	AddDeductionTotals(ctx context.Context, payrollID, amount int64) error

	CreateInternal(ctx context.Context, p InternalPayroll) (int64, error)
	UnpaidInternalInRange(ctx context.Context, employeeID int64, period shared.Period) (*InternalPayroll, error)
	LatestUnpaidInternal(ctx context.Context, employeeID int64) (*InternalPayroll, error)
	InternalByBatch(ctx context.Context, batchID int64) (*InternalPayroll, error)
	AddInternalBonusTotals(ctx context.Context, internalID, amount int64) error
	AddInternalDeductionTotals(ctx context.Context, internalID, amount int64) error
	// InternalEmployeesNeedingRollforward lists internal employees whose
	// previous payroll is linked to a batch but who have no row covering
	// the given period yet.
	InternalEmployeesNeedingRollforward(ctx context.Context, period shared.Period) ([]int64, error)
	InternalBaseSalary(ctx context.Context, employeeID int64) (int64, error)

	InsertBonus(ctx context.Context, b Bonus) (int64, error)
	InsertDeduction(ctx context.Context, d Deduction) (int64, error)
	BonusesForPayrolls(ctx context.Context, payrollIDs []int64) ([]Bonus, error)
	DeductionsForPayrolls(ctx context.Context, payrollIDs []int64) ([]Deduction, error)
	BonusesForInternal(ctx context.Context, internalID int64) ([]Bonus, error)
	DeductionsForInternal(ctx context.Context, internalID int64) ([]Deduction, error)

	// CreateBatchLinking inserts the batch and links every given line to
	// it inside one transaction. A partial link never happens.
	CreateBatchLinking(ctx context.Context, batch PaymentBatch, payrollIDs []int64, internalID *int64) (int64, error)
	LatestBatch(ctx context.Context, employeeID int64) (*PaymentBatch, error)
	LinesByBatch(ctx context.Context, batchID int64) ([]Payroll, error)

	SumOrderTotals(ctx context.Context, outletID, employeeID int64, day time.Time) (int64, error)
	EmployeeName(ctx context.Context, employeeID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const payrollColumns = `
	id, employee_id, outlet_id, attendance_id, base_salary, total_bonus,
	total_deduction, final_salary, work_date, payment_batch_id,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, p Payroll) (int64, error) {
	const query = `
		INSERT INTO payrolls (
			employee_id, outlet_id, attendance_id, base_salary,
			total_bonus, total_deduction, final_salary, work_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		p.EmployeeID, p.OutletID, p.AttendanceID, p.BaseSalary,
		p.TotalBonus, p.TotalDeduction, p.FinalSalary, shared.DayOf(p.WorkDate),
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyComputed
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) FindByAttendance(ctx context.Context, attendanceID int64) (*Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE attendance_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, attendanceID))
}

func (r *repository) UnpaidInRange(ctx context.Context, employeeID int64, period shared.Period) ([]Payroll, error) {
	query := `SELECT ` + payrollColumns + `
		FROM payrolls
		WHERE employee_id = $1
		  AND payment_batch_id IS NULL
		  AND work_date BETWEEN $2 AND $3
		ORDER BY work_date`
	rows, err := r.pool.Query(ctx, query, employeeID, period.Start, shared.DayOf(period.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *repository) LatestUnpaidPeriod(ctx context.Context, employeeID int64) (shared.Period, error) {
	const query = `
		SELECT MIN(work_date), MAX(work_date)
		FROM payrolls
		WHERE employee_id = $1 AND payment_batch_id IS NULL`
	var start, end *time.Time
	if err := r.pool.QueryRow(ctx, query, employeeID).Scan(&start, &end); err != nil {
		return shared.Period{}, err
	}
	if start == nil || end == nil {
		return shared.Period{}, ErrNoUnpaidPayroll
	}
	return shared.Period{Start: shared.DayOf(*start), End: shared.DayOf(*end)}, nil
}

func (r *repository) AddBonusTotals(ctx context.Context, payrollID, amount int64) error {
	// final_salary is rederived from the identity, never patched directly.
	const query = `
		UPDATE payrolls
		SET total_bonus = total_bonus + $2,
		    final_salary = base_salary + (total_bonus + $2) - total_deduction,
		    updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, payrollID, amount)
}

func (r *repository) AddDeductionTotals(ctx context.Context, payrollID, amount int64) error {
	const query = `
		UPDATE payrolls
		SET total_deduction = total_deduction + $2,
		    final_salary = base_salary + total_bonus - (total_deduction + $2),
		    updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, payrollID, amount)
}

const internalColumns = `
	id, employee_id, period_start, period_end, base_salary, total_bonus,
	total_deduction, final_salary, payment_batch_id, created_at, updated_at`

func (r *repository) CreateInternal(ctx context.Context, p InternalPayroll) (int64, error) {
	const query = `
		INSERT INTO internal_payrolls (
			employee_id, period_start, period_end, base_salary,
			total_bonus, total_deduction, final_salary
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		p.EmployeeID, shared.DayOf(p.PeriodStart), shared.DayOf(p.PeriodEnd),
		p.BaseSalary, p.TotalBonus, p.TotalDeduction, p.FinalSalary,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyComputed
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UnpaidInternalInRange(ctx context.Context, employeeID int64, period shared.Period) (*InternalPayroll, error) {
	query := `SELECT ` + internalColumns + `
		FROM internal_payrolls
		WHERE employee_id = $1
		  AND payment_batch_id IS NULL
		  AND period_start >= $2 AND period_end <= $3
		ORDER BY period_start DESC
		LIMIT 1`
	return r.scanOneInternal(r.pool.QueryRow(ctx, query, employeeID, period.Start, shared.DayOf(period.End)))
}

func (r *repository) LatestUnpaidInternal(ctx context.Context, employeeID int64) (*InternalPayroll, error) {
	query := `SELECT ` + internalColumns + `
		FROM internal_payrolls
		WHERE employee_id = $1 AND payment_batch_id IS NULL
		ORDER BY period_start DESC
		LIMIT 1`
	return r.scanOneInternal(r.pool.QueryRow(ctx, query, employeeID))
}

func (r *repository) InternalByBatch(ctx context.Context, batchID int64) (*InternalPayroll, error) {
	query := `SELECT ` + internalColumns + `
		FROM internal_payrolls
		WHERE payment_batch_id = $1
		LIMIT 1`
	return r.scanOneInternal(r.pool.QueryRow(ctx, query, batchID))
}

func (r *repository) AddInternalBonusTotals(ctx context.Context, internalID, amount int64) error {
	const query = `
		UPDATE internal_payrolls
		SET total_bonus = total_bonus + $2,
		    final_salary = base_salary + (total_bonus + $2) - total_deduction,
		    updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, internalID, amount)
}

func (r *repository) AddInternalDeductionTotals(ctx context.Context, internalID, amount int64) error {
	const query = `
		UPDATE internal_payrolls
		SET total_deduction = total_deduction + $2,
		    final_salary = base_salary + total_bonus - (total_deduction + $2),
		    updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, internalID, amount)
}

func (r *repository) InternalEmployeesNeedingRollforward(ctx context.Context, period shared.Period) ([]int64, error) {
	const query = `
		SELECT e.id
		FROM employees e
		WHERE e.is_active = true
		  AND NOT EXISTS (
			SELECT 1 FROM employee_outlets eo WHERE eo.employee_id = e.id
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM internal_payrolls ip
			WHERE ip.employee_id = e.id AND ip.period_start = $1
		  )
		  AND EXISTS (
			SELECT 1 FROM internal_payrolls prev
			WHERE prev.employee_id = e.id
			  AND prev.period_start < $1
			  AND prev.payment_batch_id IS NOT NULL
		  )`
	rows, err := r.pool.Query(ctx, query, period.Start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) InternalBaseSalary(ctx context.Context, employeeID int64) (int64, error) {
	const query = `SELECT base_salary FROM employees WHERE id = $1`
	var salary int64
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(&salary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return salary, nil
}

func (r *repository) InsertBonus(ctx context.Context, b Bonus) (int64, error) {
	const query = `
		INSERT INTO payroll_bonuses (
			payroll_id, internal_payroll_id, type, amount, description, reference, date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	ref, err := marshalReference(b.Reference)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.pool.QueryRow(ctx, query,
		b.PayrollID, b.InternalPayrollID, b.Type, b.Amount, b.Description, ref, shared.DayOf(b.Date),
	).Scan(&id)
	return id, err
}

func (r *repository) InsertDeduction(ctx context.Context, d Deduction) (int64, error) {
	const query = `
		INSERT INTO payroll_deductions (
			payroll_id, internal_payroll_id, type, amount, description, reference, date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	ref, err := marshalReference(d.Reference)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.pool.QueryRow(ctx, query,
		d.PayrollID, d.InternalPayrollID, d.Type, d.Amount, d.Description, ref, shared.DayOf(d.Date),
	).Scan(&id)
	return id, err
}

func (r *repository) BonusesForPayrolls(ctx context.Context, payrollIDs []int64) ([]Bonus, error) {
	const query = `
		SELECT id, payroll_id, internal_payroll_id, type, amount, description, reference, date
		FROM payroll_bonuses
		WHERE payroll_id = ANY($1)
		ORDER BY date, id`
	rows, err := r.pool.Query(ctx, query, payrollIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBonuses(rows)
}

func (r *repository) DeductionsForPayrolls(ctx context.Context, payrollIDs []int64) ([]Deduction, error) {
	const query = `
		SELECT id, payroll_id, internal_payroll_id, type, amount, description, reference, date
		FROM payroll_deductions
		WHERE payroll_id = ANY($1)
		ORDER BY date, id`
	rows, err := r.pool.Query(ctx, query, payrollIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeductions(rows)
}

func (r *repository) BonusesForInternal(ctx context.Context, internalID int64) ([]Bonus, error) {
	const query = `
		SELECT id, payroll_id, internal_payroll_id, type, amount, description, reference, date
		FROM payroll_bonuses
		WHERE internal_payroll_id = $1
		ORDER BY date, id`
	rows, err := r.pool.Query(ctx, query, internalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBonuses(rows)
}

func (r *repository) DeductionsForInternal(ctx context.Context, internalID int64) ([]Deduction, error) {
	const query = `
		SELECT id, payroll_id, internal_payroll_id, type, amount, description, reference, date
		FROM payroll_deductions
		WHERE internal_payroll_id = $1
		ORDER BY date, id`
	rows, err := r.pool.Query(ctx, query, internalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeductions(rows)
}

func (r *repository) CreateBatchLinking(ctx context.Context, batch PaymentBatch, payrollIDs []int64, internalID *int64) (int64, error) {
	var batchID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO payment_batches (
				employee_id, period_start, period_end, total_base_salary,
				total_bonus, total_deduction, total_final_salary, status,
				paid_at, payment_method, payment_reference
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`
		err := tx.QueryRow(ctx, insert,
			batch.EmployeeID, shared.DayOf(batch.PeriodStart), shared.DayOf(batch.PeriodEnd),
			batch.TotalBaseSalary, batch.TotalBonus, batch.TotalDeduction,
			batch.TotalFinalSalary, batch.Status, batch.PaidAt,
			batch.PaymentMethod, batch.PaymentReference,
		).Scan(&batchID)
		if err != nil {
			return fmt.Errorf("insert payment batch: %w", err)
		}

		if len(payrollIDs) > 0 {
			const link = `
				UPDATE payrolls
				SET payment_batch_id = $1, updated_at = now()
				WHERE id = ANY($2) AND payment_batch_id IS NULL`
			tag, err := tx.Exec(ctx, link, batchID, payrollIDs)
			if err != nil {
				return fmt.Errorf("link payroll lines: %w", err)
			}
			if int(tag.RowsAffected()) != len(payrollIDs) {
				return fmt.Errorf("link payroll lines: linked %d of %d", tag.RowsAffected(), len(payrollIDs))
			}
		}
		if internalID != nil {
			const link = `
				UPDATE internal_payrolls
				SET payment_batch_id = $1, updated_at = now()
				WHERE id = $2 AND payment_batch_id IS NULL`
			tag, err := tx.Exec(ctx, link, batchID, *internalID)
			if err != nil {
				return fmt.Errorf("link internal payroll: %w", err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("link internal payroll: already linked")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return batchID, nil
}

func (r *repository) LatestBatch(ctx context.Context, employeeID int64) (*PaymentBatch, error) {
	const query = `
		SELECT id, employee_id, period_start, period_end, total_base_salary,
		       total_bonus, total_deduction, total_final_salary, status,
		       paid_at, payment_method, payment_reference, created_at
		FROM payment_batches
		WHERE employee_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	var b PaymentBatch
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&b.ID, &b.EmployeeID, &b.PeriodStart, &b.PeriodEnd, &b.TotalBaseSalary,
		&b.TotalBonus, &b.TotalDeduction, &b.TotalFinalSalary, &b.Status,
		&b.PaidAt, &b.PaymentMethod, &b.PaymentReference, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) LinesByBatch(ctx context.Context, batchID int64) ([]Payroll, error) {
	query := `SELECT ` + payrollColumns + `
		FROM payrolls
		WHERE payment_batch_id = $1
		ORDER BY work_date`
	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *repository) SumOrderTotals(ctx context.Context, outletID, employeeID int64, day time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE outlet_id = $1 AND employee_id = $2 AND is_active = true
		  AND created_at >= $3 AND created_at < $4`
	start := shared.DayOf(day)
	var total int64
	err := r.pool.QueryRow(ctx, query, outletID, employeeID, start, start.AddDate(0, 0, 1)).Scan(&total)
	return total, err
}

func (r *repository) EmployeeName(ctx context.Context, employeeID int64) (string, error) {
	const query = `SELECT name FROM employees WHERE id = $1`
	var name string
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

func (r *repository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) scanOne(row pgx.Row) (*Payroll, error) {
	var p Payroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.OutletID, &p.AttendanceID, &p.BaseSalary,
		&p.TotalBonus, &p.TotalDeduction, &p.FinalSalary, &p.WorkDate,
		&p.PaymentBatchID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) scanOneInternal(row pgx.Row) (*InternalPayroll, error) {
	var p InternalPayroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodStart, &p.PeriodEnd, &p.BaseSalary,
		&p.TotalBonus, &p.TotalDeduction, &p.FinalSalary,
		&p.PaymentBatchID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) scanMany(rows pgx.Rows) ([]Payroll, error) {
	var out []Payroll
	for rows.Next() {
		var p Payroll
		if err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.OutletID, &p.AttendanceID, &p.BaseSalary,
			&p.TotalBonus, &p.TotalDeduction, &p.FinalSalary, &p.WorkDate,
			&p.PaymentBatchID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanBonuses(rows pgx.Rows) ([]Bonus, error) {
	var out []Bonus
	for rows.Next() {
		var (
			b   Bonus
			ref []byte
		)
		if err := rows.Scan(&b.ID, &b.PayrollID, &b.InternalPayrollID, &b.Type, &b.Amount, &b.Description, &ref, &b.Date); err != nil {
			return nil, err
		}
		if len(ref) > 0 {
			_ = json.Unmarshal(ref, &b.Reference)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanDeductions(rows pgx.Rows) ([]Deduction, error) {
	var out []Deduction
	for rows.Next() {
		var (
			d   Deduction
			ref []byte
		)
		if err := rows.Scan(&d.ID, &d.PayrollID, &d.InternalPayrollID, &d.Type, &d.Amount, &d.Description, &ref, &d.Date); err != nil {
			return nil, err
		}
		if len(ref) > 0 {
			_ = json.Unmarshal(ref, &d.Reference)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func marshalReference(ref map[string]any) ([]byte, error) {
	if ref == nil {
		return nil, nil
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("marshal reference: %w", err)
	}
	return data, nil
}
