// Package stock computes outlet-level stock snapshots for products and
// materials and broadcasts deltas after stock-affecting events.
package stock

import (
	"errors"
	"time"
)

// ItemKind selects the movement tables a snapshot reads from.
type ItemKind string

const (
	KindProduct  ItemKind = "product"
	KindMaterial ItemKind = "material"
)

// ErrItemNotFound indicates an unknown product or material id. Callers
// computing batches skip unresolvable items instead of aborting.
var ErrItemNotFound = errors.New("stock item not found")

// Snapshot is a derived stock position, never persisted.
// Remaining always equals FirstStock + StockIn - Consumed.
type Snapshot struct {
	Date       time.Time
	OutletID   int64
	ItemID     int64
	ItemName   string
	Kind       ItemKind
	FirstStock float64
	StockIn    float64
	Consumed   float64
	Remaining  float64
}

// OrderCreatedEvent triggers a stock re-broadcast for the ordered
// products and their bill-of-material materials.
type OrderCreatedEvent struct {
	OrderID    int64
	OutletID   int64
	ProductIDs []int64
	OccurredAt time.Time
}
