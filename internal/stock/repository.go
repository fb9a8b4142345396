package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selaras-pos/selaras-pos/internal/uom"
)

// ProductSource aggregates product movements: approved outlet product
// requests in, order items out.
type ProductSource struct {
	pool *pgxpool.Pool
}

// NewProductSource constructs the product MovementSource.
func NewProductSource(pool *pgxpool.Pool) *ProductSource {
	return &ProductSource{pool: pool}
}

func (s *ProductSource) StockIn(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0)
		FROM outlet_product_requests
		WHERE outlet_id = $1 AND product_id = $2 AND is_active = true
		  AND status = 'APPROVED'
		  AND approved_at >= $3 AND approved_at < $4`
	return s.sum(ctx, query, outletID, itemID, from, to)
}

func (s *ProductSource) Consumed(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.outlet_id = $1 AND oi.product_id = $2
		  AND oi.is_active = true AND o.is_active = true
		  AND o.created_at >= $3 AND o.created_at < $4`
	return s.sum(ctx, query, outletID, itemID, from, to)
}

func (s *ProductSource) ItemName(ctx context.Context, itemID int64) (string, error) {
	const query = `SELECT name FROM products WHERE id = $1 AND is_active = true`
	var name string
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", err
	}
	return name, nil
}

// MaterialsForProducts resolves the bill of materials: every distinct
// material consumed by any of the given products.
func (s *ProductSource) MaterialsForProducts(ctx context.Context, productIDs []int64) ([]int64, error) {
	const query = `
		SELECT DISTINCT material_id
		FROM product_materials
		WHERE product_id = ANY($1) AND is_active = true
		ORDER BY material_id`
	rows, err := s.pool.Query(ctx, query, productIDs)
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

func (s *ProductSource) sum(ctx context.Context, query string, args ...any) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// MaterialSource aggregates material movements: approved outlet
// material requests in, material-out rows used. Movement rows carry the
// unit they were recorded in; quantities are normalized to the
// material's canonical unit before summing.
type MaterialSource struct {
	pool *pgxpool.Pool
}

// NewMaterialSource constructs the material MovementSource.
func NewMaterialSource(pool *pgxpool.Pool) *MaterialSource {
	return &MaterialSource{pool: pool}
}

func (s *MaterialSource) StockIn(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	const query = `
		SELECT quantity, unit
		FROM outlet_material_requests
		WHERE outlet_id = $1 AND material_id = $2 AND is_active = true
		  AND status = 'APPROVED'
		  AND approved_at >= $3 AND approved_at < $4`
	return s.sumInCanonicalUnit(ctx, query, outletID, itemID, from, to)
}

func (s *MaterialSource) Consumed(ctx context.Context, outletID, itemID int64, from, to time.Time) (float64, error) {
	const query = `
		SELECT quantity, unit
		FROM material_outs
		WHERE outlet_id = $1 AND material_id = $2 AND is_active = true
		  AND created_at >= $3 AND created_at < $4`
	return s.sumInCanonicalUnit(ctx, query, outletID, itemID, from, to)
}

func (s *MaterialSource) ItemName(ctx context.Context, itemID int64) (string, error) {
	const query = `SELECT name FROM materials WHERE id = $1 AND is_active = true`
	var name string
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", err
	}
	return name, nil
}

func (s *MaterialSource) canonicalUnit(ctx context.Context, itemID int64) (string, error) {
	const query = `SELECT unit FROM materials WHERE id = $1 AND is_active = true`
	var unit string
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", err
	}
	return unit, nil
}

func (s *MaterialSource) sumInCanonicalUnit(ctx context.Context, query string, outletID, itemID int64, from, to time.Time) (float64, error) {
	canonical, err := s.canonicalUnit(ctx, itemID)
	if err != nil {
		return 0, err
	}
	rows, err := s.pool.Query(ctx, query, outletID, itemID, from, to)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total float64
	for rows.Next() {
		var qty float64
		var unit *string
		if err := rows.Scan(&qty, &unit); err != nil {
			return 0, err
		}
		converted, err := toCanonicalUnit(qty, unit, canonical)
		if err != nil {
			return 0, fmt.Errorf("material %d: %w", itemID, err)
		}
		total += converted
	}
	return total, rows.Err()
}

// toCanonicalUnit normalizes a movement quantity recorded in rowUnit to
// the material's canonical unit. Rows without a unit are taken to be in
// the canonical unit already.
func toCanonicalUnit(qty float64, rowUnit *string, canonical string) (float64, error) {
	if rowUnit == nil || *rowUnit == "" || strings.EqualFold(*rowUnit, canonical) {
		return qty, nil
	}
	return uom.Convert(qty, *rowUnit, canonical)
}
