package attendance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]*Attendance
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]*Attendance)}
}

func (r *memoryRepo) Create(ctx context.Context, a Attendance) (int64, error) {
	for _, row := range r.rows {
		if row.EmployeeID == a.EmployeeID && shared.SameDay(row.CheckinTime, a.CheckinTime) {
			return 0, ErrDuplicateCheckin
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.rows[a.ID] = &a
	return a.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Attendance, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *memoryRepo) FindByEmployeeAndDay(ctx context.Context, employeeID int64, day time.Time) (*Attendance, error) {
	for _, row := range r.rows {
		if row.EmployeeID == employeeID && shared.SameDay(row.CheckinTime, day) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) SetCheckout(ctx context.Context, id int64, at time.Time, proofPath string) error {
	row, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if row.CheckoutTime != nil {
		return ErrDuplicateCheckout
	}
	row.CheckoutTime = &at
	row.CheckoutProof = proofPath
	return nil
}

func (r *memoryRepo) Summary(ctx context.Context, employeeID int64, period shared.Period) (Summary, error) {
	return Summary{}, nil
}

type stubOutlets struct {
	settings []outlet.Setting
}

func (s *stubOutlets) Get(ctx context.Context, id int64) (*outlet.Outlet, error) {
	return &outlet.Outlet{ID: id, IsActive: true}, nil
}

func (s *stubOutlets) Settings(ctx context.Context, outletID int64) ([]outlet.Setting, error) {
	return s.settings, nil
}

func (s *stubOutlets) SettingsForDay(ctx context.Context, outletID int64, day time.Weekday) ([]outlet.Setting, error) {
	var out []outlet.Setting
	for _, st := range s.settings {
		if st.AppliesTo(day) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubOutlets) OutletForEmployee(ctx context.Context, employeeID int64) (*outlet.Outlet, error) {
	return nil, outlet.ErrNotFound
}

type countingComputer struct {
	calls int
	err   error
}

func (c *countingComputer) ComputeForAttendance(ctx context.Context, attendanceID int64) error {
	c.calls++
	return c.err
}

type recordingEnqueuer struct {
	attendanceIDs []int64
}

func (e *recordingEnqueuer) EnqueuePayrollCompute(ctx context.Context, attendanceID int64) error {
	e.attendanceIDs = append(e.attendanceIDs, attendanceID)
	return nil
}

func mustDayMinute(t *testing.T, s string) outlet.DayMinute {
	t.Helper()
	dm, err := outlet.ParseDayMinute(s)
	require.NoError(t, err)
	return dm
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestScheduledWorkdays(t *testing.T) {
	week := shared.Period{
		Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), // Monday
		End:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), // Sunday
	}
	weekdaysOnly := map[time.Weekday]bool{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true,
		time.Thursday: true, time.Friday: true,
	}

	// Saturday and Sunday are outside the schedule and never count.
	require.Equal(t, 5, ScheduledWorkdays(week, weekdaysOnly))

	// No schedule at all means no day to be absent from.
	require.Equal(t, 0, ScheduledWorkdays(week, nil))

	month := shared.MonthOf(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.Equal(t, 22, ScheduledWorkdays(month, weekdaysOnly))
}

func TestResolveLateness(t *testing.T) {
	eight := outlet.DayMinute(8 * 60)
	settings := []outlet.Setting{
		{CheckIn: outlet.DayMinute(9 * 60), Days: allWeekdays(), Salary: 100000},
		{CheckIn: eight, Days: allWeekdays(), Salary: 100000},
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	// Early and on-time arrivals are never negative.
	for _, minute := range []int{0, 7*60 + 59, 8 * 60} {
		at := day.Add(time.Duration(minute) * time.Minute)
		late, err := ResolveLateness(settings, at.Weekday(), at)
		require.NoError(t, err)
		require.Equal(t, 0, late)
	}

	// 08:45 against the earliest schedule (08:00) is 45 minutes late.
	late, err := ResolveLateness(settings, time.Monday, day.Add(8*time.Hour+45*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 45, late)
}

func TestResolveLatenessNoSchedule(t *testing.T) {
	settings := []outlet.Setting{
		{CheckIn: outlet.DayMinute(8 * 60), Days: []time.Weekday{time.Monday}},
	}
	_, err := ResolveLateness(settings, time.Sunday, time.Now())
	require.ErrorIs(t, err, ErrNoSchedule)

	_, err = ResolveLateness(nil, time.Monday, time.Now())
	require.ErrorIs(t, err, ErrNoSchedule)
}

func TestCheckInRejectsDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	outlets := &stubOutlets{settings: []outlet.Setting{
		{CheckIn: mustDayMinute(t, "08:00"), Days: allWeekdays(), Salary: 100000},
	}}
	now := time.Date(2026, 3, 2, 8, 10, 0, 0, time.UTC)
	svc := NewService(repo, outlets, nil, nil, testLogger()).WithClock(fixedClock(now))

	first, err := svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 1, OutletID: 1, ProofPath: "in.jpg"})
	require.NoError(t, err)
	require.Equal(t, 10, first.LateMinutes)
	require.Equal(t, ApprovalPending, first.LateStatus)

	_, err = svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 1, OutletID: 1, ProofPath: "in.jpg"})
	require.ErrorIs(t, err, ErrDuplicateCheckin)

	// A different employee on the same day is independent.
	_, err = svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 2, OutletID: 1, ProofPath: "in.jpg"})
	require.NoError(t, err)
}

func TestCheckInNoSchedule(t *testing.T) {
	repo := newMemoryRepo()
	outlets := &stubOutlets{settings: []outlet.Setting{
		{CheckIn: mustDayMinute(t, "08:00"), Days: []time.Weekday{time.Tuesday}},
	}}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // Monday
	svc := NewService(repo, outlets, nil, nil, testLogger()).WithClock(fixedClock(now))

	_, err := svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 1, OutletID: 1, ProofPath: "in.jpg"})
	require.ErrorIs(t, err, ErrNoSchedule)
}

func TestCheckOutTriggersPayrollOnce(t *testing.T) {
	repo := newMemoryRepo()
	outlets := &stubOutlets{settings: []outlet.Setting{
		{CheckIn: mustDayMinute(t, "08:00"), Days: allWeekdays(), Salary: 100000},
	}}
	computer := &countingComputer{}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewService(repo, outlets, computer, nil, testLogger()).WithClock(fixedClock(now))

	_, err := svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 1, OutletID: 1, ProofPath: "in.jpg"})
	require.NoError(t, err)

	svc.WithClock(fixedClock(now.Add(9 * time.Hour)))
	a, err := svc.CheckOut(context.Background(), 1, "out.jpg")
	require.NoError(t, err)
	require.NotNil(t, a.CheckoutTime)
	require.Equal(t, 1, computer.calls)

	_, err = svc.CheckOut(context.Background(), 1, "out.jpg")
	require.ErrorIs(t, err, ErrDuplicateCheckout)
	require.Equal(t, 1, computer.calls)
}

func TestCheckOutWithoutCheckin(t *testing.T) {
	repo := newMemoryRepo()
	outlets := &stubOutlets{}
	svc := NewService(repo, outlets, nil, nil, testLogger())

	_, err := svc.CheckOut(context.Background(), 1, "out.jpg")
	require.ErrorIs(t, err, ErrNoCheckin)
}

func TestCheckOutSurvivesPayrollFailure(t *testing.T) {
	repo := newMemoryRepo()
	outlets := &stubOutlets{settings: []outlet.Setting{
		{CheckIn: mustDayMinute(t, "08:00"), Days: allWeekdays(), Salary: 100000},
	}}
	computer := &countingComputer{err: context.DeadlineExceeded}
	enqueuer := &recordingEnqueuer{}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewService(repo, outlets, computer, enqueuer, testLogger()).WithClock(fixedClock(now))

	_, err := svc.CheckIn(context.Background(), CheckInInput{EmployeeID: 1, OutletID: 1, ProofPath: "in.jpg"})
	require.NoError(t, err)

	svc.WithClock(fixedClock(now.Add(9 * time.Hour)))
	a, err := svc.CheckOut(context.Background(), 1, "out.jpg")
	require.NoError(t, err)
	require.NotNil(t, a.CheckoutTime)

	// The attendance write stays durable; the payroll step is deferred.
	stored, err := repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CheckoutTime)
	require.Equal(t, []int64{a.ID}, enqueuer.attendanceIDs)
}
