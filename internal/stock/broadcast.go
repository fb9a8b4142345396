package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// ChannelMonitoring receives every stock-change message regardless of outlet.
const ChannelMonitoring = "stock:monitoring"

// OutletChannel is the per-outlet stock-change channel name.
func OutletChannel(outletID int64) string {
	return fmt.Sprintf("stock:outlet:%d", outletID)
}

// Publisher delivers a stock-change payload to a channel. Delivery is
// best-effort.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// RedisPublisher publishes JSON payloads over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher constructs RedisPublisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stock payload: %w", err)
	}
	return p.client.Publish(ctx, channel, data).Err()
}

// ProductStockPayload is one product line in a stock-change message.
type ProductStockPayload struct {
	Date        string  `json:"date"`
	OutletID    int64   `json:"outlet_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	FirstStock  float64 `json:"first_stock"`
	StockIn     float64 `json:"stock_in"`
	SoldStock   float64 `json:"sold_stock"`
	Remaining   float64 `json:"remaining_stock"`
}

// MaterialStockPayload is one material line in a stock-change message.
type MaterialStockPayload struct {
	Date         string  `json:"date"`
	OutletID     int64   `json:"outlet_id"`
	MaterialID   int64   `json:"material_id"`
	MaterialName string  `json:"material_name"`
	FirstStock   float64 `json:"first_stock"`
	StockIn      float64 `json:"stock_in"`
	UsedStock    float64 `json:"used_stock"`
	Remaining    float64 `json:"remaining_stock"`
}

// StockChangeMessage is the broadcast envelope for one outlet.
type StockChangeMessage struct {
	OutletID  int64                  `json:"outlet_id"`
	Products  []ProductStockPayload  `json:"products,omitempty"`
	Materials []MaterialStockPayload `json:"materials,omitempty"`
}

// BOMResolver maps ordered products to the materials they consume.
type BOMResolver interface {
	MaterialsForProducts(ctx context.Context, productIDs []int64) ([]int64, error)
}

// Broadcaster recomputes availability after stock-affecting events and
// hands the deltas to the publisher. Publish failures never propagate
// to the triggering request.
type Broadcaster struct {
	calc      *Calculator
	bom       BOMResolver
	publisher Publisher
	logger    *slog.Logger
}

// NewBroadcaster builds Broadcaster.
func NewBroadcaster(calc *Calculator, bom BOMResolver, publisher Publisher, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{calc: calc, bom: bom, publisher: publisher, logger: logger}
}

// OrderCreated broadcasts the cumulative availability of the ordered
// products and their bill-of-material materials for the order's outlet
// and day. Fire-and-forget: failures are logged.
func (b *Broadcaster) OrderCreated(ctx context.Context, evt OrderCreatedEvent) {
	day := evt.OccurredAt
	if day.IsZero() {
		day = time.Now()
	}

	products := b.collectProducts(ctx, evt.OutletID, evt.ProductIDs, day)

	var materials []MaterialStockPayload
	materialIDs, err := b.bom.MaterialsForProducts(ctx, evt.ProductIDs)
	if err != nil {
		b.logger.Warn("resolve bill of materials",
			slog.Int64("order_id", evt.OrderID),
			slog.Any("error", err))
	} else {
		materials = b.collectMaterials(ctx, evt.OutletID, materialIDs, day)
	}

	if len(products) == 0 && len(materials) == 0 {
		return
	}
	msg := StockChangeMessage{OutletID: evt.OutletID, Products: products, Materials: materials}
	for _, channel := range []string{OutletChannel(evt.OutletID), ChannelMonitoring} {
		if err := b.publisher.Publish(ctx, channel, msg); err != nil {
			b.logger.Warn("publish stock change",
				slog.String("channel", channel),
				slog.Int64("order_id", evt.OrderID),
				slog.Any("error", err))
		}
	}
}

func (b *Broadcaster) collectProducts(ctx context.Context, outletID int64, ids []int64, day time.Time) []ProductStockPayload {
	snaps := b.collect(ctx, KindProduct, outletID, ids, day)
	out := make([]ProductStockPayload, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, ProductStockPayload{
			Date:        s.Date.Format("2006-01-02"),
			OutletID:    s.OutletID,
			ProductID:   s.ItemID,
			ProductName: s.ItemName,
			FirstStock:  s.FirstStock,
			StockIn:     s.StockIn,
			SoldStock:   s.Consumed,
			Remaining:   s.Remaining,
		})
	}
	return out
}

func (b *Broadcaster) collectMaterials(ctx context.Context, outletID int64, ids []int64, day time.Time) []MaterialStockPayload {
	snaps := b.collect(ctx, KindMaterial, outletID, ids, day)
	out := make([]MaterialStockPayload, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, MaterialStockPayload{
			Date:         s.Date.Format("2006-01-02"),
			OutletID:     s.OutletID,
			MaterialID:   s.ItemID,
			MaterialName: s.ItemName,
			FirstStock:   s.FirstStock,
			StockIn:      s.StockIn,
			UsedStock:    s.Consumed,
			Remaining:    s.Remaining,
		})
	}
	return out
}

// collect computes snapshots concurrently, skipping unknown items.
func (b *Broadcaster) collect(ctx context.Context, kind ItemKind, outletID int64, ids []int64, day time.Time) []Snapshot {
	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		g.Go(func() error {
			snap, err := b.calc.CumulativeSnapshot(gctx, kind, outletID, id, day)
			if err != nil {
				if errors.Is(err, ErrItemNotFound) {
					return nil
				}
				b.logger.Warn("compute stock snapshot",
					slog.String("kind", string(kind)),
					slog.Int64("item_id", id),
					slog.Any("error", err))
				return nil
			}
			mu.Lock()
			snaps = append(snaps, *snap)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return snaps
}
