package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/selaras-pos/selaras-pos/internal/shared"
)

// MovementSource aggregates stock movements for one item kind. Sums are
// scoped to active rows of one outlet; the [from, to) window is
// half-open on instants.
type MovementSource interface {
	// StockIn sums approved inbound quantities.
	StockIn(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error)
	// Consumed sums sold (products) or used (materials) quantities.
	Consumed(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error)
	// ItemName resolves the display name, or ErrItemNotFound.
	ItemName(ctx context.Context, itemID int64) (string, error)
}

// Calculator computes stock snapshots from movement sums. It holds no
// state; every call re-reads from the sources.
type Calculator struct {
	products  MovementSource
	materials MovementSource
}

// NewCalculator builds Calculator.
func NewCalculator(products, materials MovementSource) *Calculator {
	return &Calculator{products: products, materials: materials}
}

func (c *Calculator) source(kind ItemKind) (MovementSource, error) {
	switch kind {
	case KindProduct:
		return c.products, nil
	case KindMaterial:
		return c.materials, nil
	default:
		return nil, fmt.Errorf("stock: unknown item kind %q", kind)
	}
}

// DailySnapshot computes the day-windowed snapshot. FirstStock is a
// rolling approximation rebuilt from the previous calendar day's
// movements only, not a running ledger; gaps in historical data are
// reflected as-is.
func (c *Calculator) DailySnapshot(ctx context.Context, kind ItemKind, outletID, itemID int64, date time.Time) (*Snapshot, error) {
	src, err := c.source(kind)
	if err != nil {
		return nil, err
	}
	name, err := src.ItemName(ctx, itemID)
	if err != nil {
		return nil, err
	}

	day := shared.DayOf(date)
	nextDay := day.AddDate(0, 0, 1)
	prevDay := day.AddDate(0, 0, -1)

	prevIn, err := src.StockIn(ctx, outletID, itemID, prevDay, day)
	if err != nil {
		return nil, fmt.Errorf("previous day stock-in: %w", err)
	}
	prevOut, err := src.Consumed(ctx, outletID, itemID, prevDay, day)
	if err != nil {
		return nil, fmt.Errorf("previous day consumption: %w", err)
	}
	todayIn, err := src.StockIn(ctx, outletID, itemID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("stock-in: %w", err)
	}
	todayOut, err := src.Consumed(ctx, outletID, itemID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("consumption: %w", err)
	}

	first := prevIn - prevOut
	return &Snapshot{
		Date:       day,
		OutletID:   outletID,
		ItemID:     itemID,
		ItemName:   name,
		Kind:       kind,
		FirstStock: first,
		StockIn:    todayIn,
		Consumed:   todayOut,
		Remaining:  first + todayIn - todayOut,
	}, nil
}

// CumulativeSnapshot computes the all-time availability view used by
// order-time checks and broadcasts: FirstStock is the cumulative
// balance up to end of the previous day, so Remaining equals total
// approved stock-in minus total consumption to end of the given day.
func (c *Calculator) CumulativeSnapshot(ctx context.Context, kind ItemKind, outletID, itemID int64, date time.Time) (*Snapshot, error) {
	src, err := c.source(kind)
	if err != nil {
		return nil, err
	}
	name, err := src.ItemName(ctx, itemID)
	if err != nil {
		return nil, err
	}

	day := shared.DayOf(date)
	nextDay := day.AddDate(0, 0, 1)
	var epoch time.Time

	histIn, err := src.StockIn(ctx, outletID, itemID, epoch, day)
	if err != nil {
		return nil, fmt.Errorf("historical stock-in: %w", err)
	}
	histOut, err := src.Consumed(ctx, outletID, itemID, epoch, day)
	if err != nil {
		return nil, fmt.Errorf("historical consumption: %w", err)
	}
	todayIn, err := src.StockIn(ctx, outletID, itemID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("stock-in: %w", err)
	}
	todayOut, err := src.Consumed(ctx, outletID, itemID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("consumption: %w", err)
	}

	first := histIn - histOut
	return &Snapshot{
		Date:       day,
		OutletID:   outletID,
		ItemID:     itemID,
		ItemName:   name,
		Kind:       kind,
		FirstStock: first,
		StockIn:    todayIn,
		Consumed:   todayOut,
		Remaining:  first + todayIn - todayOut,
	}, nil
}

// Availability is the cumulative remaining stock to end of the given
// day, used to answer order-time stock checks.
func (c *Calculator) Availability(ctx context.Context, kind ItemKind, outletID, itemID int64, date time.Time) (float64, error) {
	snap, err := c.CumulativeSnapshot(ctx, kind, outletID, itemID, date)
	if err != nil {
		return 0, err
	}
	return snap.Remaining, nil
}
