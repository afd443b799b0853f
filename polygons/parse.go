package polygons

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ozscope/airspace-stats/geo"
)

// Polygon files come in two shapes: a GeoJSON Polygon geometry, whose
// coordinates are [lon, lat], and a plain pair array, which in the wild is
// usually [lat, lon]. Both are normalized to the internal lon/lat order
// here. A plain array may carry an explicit "order" declaration in a
// wrapper object; without one the order is inferred from out-of-range
// values, and a file where every pair could be read either way is rejected
// instead of guessed.
func parseVertices(raw []byte) ([]geo.Point, error) {
	var geojson struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &geojson); err == nil && strings.EqualFold(geojson.Type, "Polygon") {
		if len(geojson.Coordinates) == 0 {
			return nil, errors.New("GeoJSON polygon has no rings")
		}
		// Only the outer ring is used; holes do not occur in sector data.
		return pairsToPoints(geojson.Coordinates[0], false)
	}

	var wrapped struct {
		Order  string      `json:"order"`
		Points [][]float64 `json:"points"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Points) > 0 {
		switch strings.ToLower(wrapped.Order) {
		case "lonlat":
			return pairsToPoints(wrapped.Points, false)
		case "latlon":
			return pairsToPoints(wrapped.Points, true)
		default:
			return nil, fmt.Errorf("unknown coordinate order %q (want lonlat or latlon)", wrapped.Order)
		}
	}

	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, errors.New("file is neither a GeoJSON Polygon, an order-wrapped point list, nor a pair array")
	}
	latFirst, err := inferOrder(pairs)
	if err != nil {
		return nil, err
	}
	return pairsToPoints(pairs, latFirst)
}

// inferOrder decides whether a bare pair array is [lat, lon] or
// [lon, lat]. A value outside ±90 can only be a longitude.
func inferOrder(pairs [][]float64) (latFirst bool, err error) {
	firstOutOfLat, secondOutOfLat := false, false
	for _, p := range pairs {
		if len(p) != 2 {
			return false, fmt.Errorf("coordinate pair has %d values, want 2", len(p))
		}
		if p[0] < -90 || p[0] > 90 {
			firstOutOfLat = true
		}
		if p[1] < -90 || p[1] > 90 {
			secondOutOfLat = true
		}
	}
	switch {
	case firstOutOfLat && secondOutOfLat:
		return false, errors.New("coordinate pairs exceed ±90 in both columns")
	case firstOutOfLat:
		return false, nil // first column must be longitude
	case secondOutOfLat:
		return true, nil // second column must be longitude
	default:
		return false, errors.New("coordinate order is ambiguous (all values within ±90); declare \"order\" explicitly")
	}
}

func pairsToPoints(pairs [][]float64, latFirst bool) ([]geo.Point, error) {
	pts := make([]geo.Point, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("coordinate pair has %d values, want 2", len(p))
		}
		if latFirst {
			pts = append(pts, geo.Point{Lon: p[1], Lat: p[0]})
		} else {
			pts = append(pts, geo.Point{Lon: p[0], Lat: p[1]})
		}
	}
	return pts, nil
}
