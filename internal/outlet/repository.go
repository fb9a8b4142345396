package outlet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing outlet row.
var ErrNotFound = errors.New("outlet not found")

// Repository exposes outlet master data lookups.
type Repository interface {
	Get(ctx context.Context, id int64) (*Outlet, error)
	Settings(ctx context.Context, outletID int64) ([]Setting, error)
	// SettingsForDay returns the active settings whose weekday set
	// contains day, ordered by check-in time ascending.
	SettingsForDay(ctx context.Context, outletID int64, day time.Weekday) ([]Setting, error)
	// OutletForEmployee resolves the outlet an employee is assigned to.
	// Returns ErrNotFound for internal employees with no assignment.
	OutletForEmployee(ctx context.Context, employeeID int64) (*Outlet, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Outlet, error) {
	const query = `
		SELECT id, name, address, income_target, is_active, created_at, updated_at
		FROM outlets
		WHERE id = $1 AND is_active = true`
	var o Outlet
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.Address, &o.IncomeTarget, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) Settings(ctx context.Context, outletID int64) ([]Setting, error) {
	const query = `
		SELECT id, outlet_id, check_in_minute, check_out_minute, days, salary, is_active
		FROM outlet_settings
		WHERE outlet_id = $1 AND is_active = true
		ORDER BY check_in_minute`
	rows, err := r.pool.Query(ctx, query, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSettings(rows)
}

func (r *repository) SettingsForDay(ctx context.Context, outletID int64, day time.Weekday) ([]Setting, error) {
	const query = `
		SELECT id, outlet_id, check_in_minute, check_out_minute, days, salary, is_active
		FROM outlet_settings
		WHERE outlet_id = $1 AND is_active = true AND $2 = ANY(days)
		ORDER BY check_in_minute`
	rows, err := r.pool.Query(ctx, query, outletID, weekdayName(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSettings(rows)
}

func (r *repository) OutletForEmployee(ctx context.Context, employeeID int64) (*Outlet, error) {
	const query = `
		SELECT o.id, o.name, o.address, o.income_target, o.is_active, o.created_at, o.updated_at
		FROM outlets o
		JOIN employee_outlets eo ON eo.outlet_id = o.id
		WHERE eo.employee_id = $1 AND o.is_active = true
		LIMIT 1`
	var o Outlet
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&o.ID, &o.Name, &o.Address, &o.IncomeTarget, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanSettings(rows pgx.Rows) ([]Setting, error) {
	var out []Setting
	for rows.Next() {
		var (
			s                 Setting
			checkIn, checkOut int
			days              []string
		)
		if err := rows.Scan(&s.ID, &s.OutletID, &checkIn, &checkOut, &days, &s.Salary, &s.IsActive); err != nil {
			return nil, err
		}
		s.CheckIn = DayMinute(checkIn)
		s.CheckOut = DayMinute(checkOut)
		for _, d := range days {
			if wd, ok := ParseWeekday(d); ok {
				s.Days = append(s.Days, wd)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
	time.Saturday:  "SATURDAY",
	time.Sunday:    "SUNDAY",
}

func weekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday maps a stored weekday name ("MONDAY"...) back to its
// time.Weekday, case-insensitively.
func ParseWeekday(s string) (time.Weekday, bool) {
	for wd, name := range weekdayNames {
		if strings.EqualFold(name, s) {
			return wd, true
		}
	}
	return 0, false
}
