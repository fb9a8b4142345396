package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/platform/db"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// Repository persists attendance rows.
type Repository interface {
	Create(ctx context.Context, a Attendance) (int64, error)
	Get(ctx context.Context, id int64) (*Attendance, error)
	// FindByEmployeeAndDay returns the attendance for one calendar day,
	// or ErrNotFound.
	FindByEmployeeAndDay(ctx context.Context, employeeID int64, day time.Time) (*Attendance, error)
	SetCheckout(ctx context.Context, id int64, at time.Time, proofPath string) error
	Summary(ctx context.Context, employeeID int64, period shared.Period) (Summary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const attendanceColumns = `
	id, employee_id, outlet_id, checkin_time, checkout_time,
	late_minutes, late_status, checkin_proof, checkout_proof,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, a Attendance) (int64, error) {
	const query = `
		INSERT INTO attendances (
			employee_id, outlet_id, work_date, checkin_time,
			late_minutes, late_status, checkin_proof
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		a.EmployeeID, a.OutletID, shared.DayOf(a.CheckinTime), a.CheckinTime,
		a.LateMinutes, a.LateStatus, a.CheckinProof,
	).Scan(&id)
	if err != nil {
		// The (employee_id, work_date) unique index closes the race
		// between the existence query and this insert.
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateCheckin
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) FindByEmployeeAndDay(ctx context.Context, employeeID int64, day time.Time) (*Attendance, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND work_date = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, employeeID, shared.DayOf(day)))
}

func (r *repository) SetCheckout(ctx context.Context, id int64, at time.Time, proofPath string) error {
	const query = `
		UPDATE attendances
		SET checkout_time = $2, checkout_proof = $3, updated_at = now()
		WHERE id = $1 AND checkout_time IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, at, proofPath)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateCheckout
	}
	return nil
}

func (r *repository) Summary(ctx context.Context, employeeID int64, period shared.Period) (Summary, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE checkin_time IS NOT NULL),
			COUNT(*) FILTER (WHERE late_minutes > 0)
		FROM attendances
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3`
	var s Summary
	err := r.pool.QueryRow(ctx, query, employeeID, period.Start, shared.DayOf(period.End)).
		Scan(&s.Present, &s.Late)
	if err != nil {
		return Summary{}, err
	}

	// Absences only exist on days the employee's outlet schedule
	// actually covers.
	covered, err := r.scheduledWeekdays(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}
	workDays := ScheduledWorkdays(period, covered)
	if s.Present < workDays {
		s.Absent = workDays - s.Present
	}
	return s, nil
}

func (r *repository) scheduledWeekdays(ctx context.Context, employeeID int64) (map[time.Weekday]bool, error) {
	const query = `
		SELECT s.days
		FROM outlet_settings s
		JOIN employee_outlets eo ON eo.outlet_id = s.outlet_id
		WHERE eo.employee_id = $1 AND s.is_active = true`
	rows, err := r.pool.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	covered := make(map[time.Weekday]bool)
	for rows.Next() {
		var days []string
		if err := rows.Scan(&days); err != nil {
			return nil, err
		}
		for _, d := range days {
			if wd, ok := outlet.ParseWeekday(d); ok {
				covered[wd] = true
			}
		}
	}
	return covered, rows.Err()
}

func (r *repository) scanOne(row pgx.Row) (*Attendance, error) {
	var a Attendance
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.OutletID, &a.CheckinTime, &a.CheckoutTime,
		&a.LateMinutes, &a.LateStatus, &a.CheckinProof, &a.CheckoutProof,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
