package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/selaras-pos/selaras-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger      *slog.Logger
	calc        *Calculator
	broadcaster *Broadcaster
	validator   *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, calc *Calculator, broadcaster *Broadcaster) *Handler {
	return &Handler{logger: logger, calc: calc, broadcaster: broadcaster, validator: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/snapshot", h.handleSnapshot)
	r.Get("/availability", h.handleAvailability)
	r.Post("/events/order-created", h.handleOrderCreated)
}

// SnapshotResponse is the day-windowed snapshot on the wire.
type SnapshotResponse struct {
	Date       string  `json:"date"`
	OutletID   int64   `json:"outlet_id"`
	ItemID     int64   `json:"item_id"`
	ItemName   string  `json:"item_name"`
	Kind       string  `json:"kind"`
	FirstStock float64 `json:"first_stock"`
	StockIn    float64 `json:"stock_in"`
	Consumed   float64 `json:"consumed"`
	Remaining  float64 `json:"remaining_stock"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	q, ok := h.snapshotQuery(w, r)
	if !ok {
		return
	}
	snap, err := h.calc.DailySnapshot(r.Context(), q.kind, q.outletID, q.itemID, q.date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SnapshotResponse{
		Date:       snap.Date.Format("2006-01-02"),
		OutletID:   snap.OutletID,
		ItemID:     snap.ItemID,
		ItemName:   snap.ItemName,
		Kind:       string(snap.Kind),
		FirstStock: snap.FirstStock,
		StockIn:    snap.StockIn,
		Consumed:   snap.Consumed,
		Remaining:  snap.Remaining,
	})
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q, ok := h.snapshotQuery(w, r)
	if !ok {
		return
	}
	remaining, err := h.calc.Availability(r.Context(), q.kind, q.outletID, q.itemID, q.date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"outlet_id":       q.outletID,
		"item_id":         q.itemID,
		"kind":            string(q.kind),
		"date":            q.date.Format("2006-01-02"),
		"remaining_stock": remaining,
	})
}

// OrderCreatedRequest is the internal hook payload fired after an order
// is persisted.
type OrderCreatedRequest struct {
	OrderID    int64   `json:"order_id" validate:"required,gt=0"`
	OutletID   int64   `json:"outlet_id" validate:"required,gt=0"`
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) handleOrderCreated(w http.ResponseWriter, r *http.Request) {
	var req OrderCreatedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	h.broadcaster.OrderCreated(r.Context(), OrderCreatedEvent{
		OrderID:    req.OrderID,
		OutletID:   req.OutletID,
		ProductIDs: req.ProductIDs,
		OccurredAt: time.Now(),
	})
	w.WriteHeader(http.StatusAccepted)
}

type snapshotQuery struct {
	kind     ItemKind
	outletID int64
	itemID   int64
	date     time.Time
}

func (h *Handler) snapshotQuery(w http.ResponseWriter, r *http.Request) (snapshotQuery, bool) {
	var q snapshotQuery
	values := r.URL.Query()

	switch values.Get("kind") {
	case "product", "":
		q.kind = KindProduct
	case "material":
		q.kind = KindMaterial
	default:
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "kind must be product or material")
		return q, false
	}

	var err error
	if q.outletID, err = strconv.ParseInt(values.Get("outlet_id"), 10, 64); err != nil || q.outletID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid outlet_id")
		return q, false
	}
	if q.itemID, err = strconv.ParseInt(values.Get("item_id"), 10, 64); err != nil || q.itemID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item_id")
		return q, false
	}

	q.date = time.Now()
	if raw := values.Get("date"); raw != "" {
		if q.date, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, want YYYY-MM-DD")
			return q, false
		}
	}
	return q, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrItemNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("stock request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
