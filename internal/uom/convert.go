// Package uom provides unit-of-measure conversion as a pure lookup table.
package uom

import (
	"errors"
	"strings"
)

// ErrUnknownUnit indicates the unit has no conversion entry.
var ErrUnknownUnit = errors.New("uom: unknown unit")

// ErrIncompatibleUnits indicates the units belong to different dimensions.
var ErrIncompatibleUnits = errors.New("uom: incompatible units")

type entry struct {
	dimension string
	toBase    float64
}

// Factors are relative to the base unit of each dimension
// (gram for mass, millilitre for volume, piece for count).
var table = map[string]entry{
	"g":    {"mass", 1},
	"kg":   {"mass", 1000},
	"mg":   {"mass", 0.001},
	"ml":   {"volume", 1},
	"l":    {"volume", 1000},
	"pcs":  {"count", 1},
	"pack": {"count", 1},
}

// Convert converts qty from one unit to another within the same dimension.
func Convert(qty float64, from, to string) (float64, error) {
	src, ok := table[strings.ToLower(from)]
	if !ok {
		return 0, ErrUnknownUnit
	}
	dst, ok := table[strings.ToLower(to)]
	if !ok {
		return 0, ErrUnknownUnit
	}
	if src.dimension != dst.dimension {
		return 0, ErrIncompatibleUnits
	}
	return qty * src.toBase / dst.toBase, nil
}

// ToBase converts qty to the base unit of its dimension.
func ToBase(qty float64, unit string) (float64, error) {
	src, ok := table[strings.ToLower(unit)]
	if !ok {
		return 0, ErrUnknownUnit
	}
	return qty * src.toBase, nil
}
