package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type movement struct {
	itemID int64
	at     time.Time
	in     float64
	out    float64
}

// memSource is an in-memory MovementSource.
type memSource struct {
	names     map[int64]string
	movements []movement
}

func newMemSource() *memSource {
	return &memSource{names: make(map[int64]string)}
}

func (s *memSource) add(itemID int64, at time.Time, in, out float64) {
	s.movements = append(s.movements, movement{itemID: itemID, at: at, in: in, out: out})
}

func (s *memSource) sum(itemID int64, from, to time.Time, pick func(movement) float64) float64 {
	var total float64
	for _, m := range s.movements {
		if m.itemID != itemID {
			continue
		}
		if m.at.Before(from) || !m.at.Before(to) {
			continue
		}
		total += pick(m)
	}
	return total
}

func (s *memSource) StockIn(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	return s.sum(itemID, from, to, func(m movement) float64 { return m.in }), nil
}

func (s *memSource) Consumed(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	return s.sum(itemID, from, to, func(m movement) float64 { return m.out }), nil
}

func (s *memSource) ItemName(ctx context.Context, itemID int64) (string, error) {
	name, ok := s.names[itemID]
	if !ok {
		return "", ErrItemNotFound
	}
	return name, nil
}

func at(day time.Time, hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func TestDailySnapshot(t *testing.T) {
	ctx := context.Background()
	products := newMemSource()
	products.names[5] = "Es Kopi Susu"
	calc := NewCalculator(products, newMemSource())

	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	products.add(5, at(yesterday, 9), 20, 0)
	products.add(5, at(today, 8), 10, 0)
	products.add(5, at(today, 12), 0, 5)

	snap, err := calc.DailySnapshot(ctx, KindProduct, 1, 5, at(today, 15))
	require.NoError(t, err)
	require.Equal(t, "Es Kopi Susu", snap.ItemName)
	require.InDelta(t, 20, snap.FirstStock, 1e-9)
	require.InDelta(t, 10, snap.StockIn, 1e-9)
	require.InDelta(t, 5, snap.Consumed, 1e-9)
	require.InDelta(t, 25, snap.Remaining, 1e-9)
	require.InDelta(t, snap.FirstStock+snap.StockIn-snap.Consumed, snap.Remaining, 1e-9)
}

func TestDailySnapshotIgnoresOlderHistory(t *testing.T) {
	ctx := context.Background()
	products := newMemSource()
	products.names[5] = "Es Kopi Susu"
	calc := NewCalculator(products, newMemSource())

	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	// Two days back: outside the rolling window, invisible to the daily view.
	products.add(5, at(today.AddDate(0, 0, -2), 9), 100, 0)
	products.add(5, at(today.AddDate(0, 0, -1), 9), 20, 3)
	products.add(5, at(today, 12), 0, 5)

	snap, err := calc.DailySnapshot(ctx, KindProduct, 1, 5, today)
	require.NoError(t, err)
	require.InDelta(t, 17, snap.FirstStock, 1e-9)
	require.InDelta(t, 12, snap.Remaining, 1e-9)
}

func TestCumulativeSnapshotCarriesFullHistory(t *testing.T) {
	ctx := context.Background()
	products := newMemSource()
	products.names[5] = "Es Kopi Susu"
	calc := NewCalculator(products, newMemSource())

	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	products.add(5, at(today.AddDate(0, 0, -2), 9), 100, 0)
	products.add(5, at(today.AddDate(0, 0, -1), 9), 20, 3)
	products.add(5, at(today, 8), 10, 0)
	products.add(5, at(today, 12), 0, 5)

	snap, err := calc.CumulativeSnapshot(ctx, KindProduct, 1, 5, today)
	require.NoError(t, err)
	require.InDelta(t, 117, snap.FirstStock, 1e-9)
	require.InDelta(t, 10, snap.StockIn, 1e-9)
	require.InDelta(t, 5, snap.Consumed, 1e-9)
	require.InDelta(t, 122, snap.Remaining, 1e-9)
	require.InDelta(t, snap.FirstStock+snap.StockIn-snap.Consumed, snap.Remaining, 1e-9)

	avail, err := calc.Availability(ctx, KindProduct, 1, 5, today)
	require.NoError(t, err)
	require.InDelta(t, snap.Remaining, avail, 1e-9)
}

func TestSnapshotUnknownItem(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newMemSource(), newMemSource())

	_, err := calc.DailySnapshot(ctx, KindProduct, 1, 99, time.Now())
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = calc.CumulativeSnapshot(ctx, KindMaterial, 1, 99, time.Now())
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = calc.DailySnapshot(ctx, ItemKind("warehouse"), 1, 1, time.Now())
	require.Error(t, err)
}

func TestMaterialSnapshotUsesMaterialSource(t *testing.T) {
	ctx := context.Background()
	materials := newMemSource()
	materials.names[8] = "Susu UHT"
	calc := NewCalculator(newMemSource(), materials)

	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	materials.add(8, at(today, 7), 2000, 0)
	materials.add(8, at(today, 13), 0, 350)

	snap, err := calc.CumulativeSnapshot(ctx, KindMaterial, 1, 8, today)
	require.NoError(t, err)
	require.Equal(t, "Susu UHT", snap.ItemName)
	require.InDelta(t, 1650, snap.Remaining, 1e-9)
}
