// Package geofence evaluates point-in-polygon containment for safe zones.
// Containment is planar over raw lat/lng; pastures are far too small for
// geodesic error to matter.
package geofence

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// Point is a raw WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// ParsePolygon decodes a geofence coordinate payload: a JSON array of
// [lat, lng] pairs. Polygons need at least three vertices.
func ParsePolygon(payload string) ([]Point, error) {
	var raw [][]float64
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse polygon payload: %w", err)
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(raw))
	}
	polygon := make([]Point, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("vertex %d: expected [lat, lng] pair, got %d values", i, len(pair))
		}
		polygon = append(polygon, Point{Lat: pair[0], Lng: pair[1]})
	}
	return polygon, nil
}

// Contains reports whether pt falls inside polygon using the even-odd ray
// casting rule. The closing edge is implied from the last vertex back to
// the first. Polygons with fewer than three vertices never match.
//
// Points exactly on an edge resolve by the half-open interval on the
// latitude axis; the outcome is deterministic but deliberately unspecified.
func Contains(pt Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		vi, vj := polygon[i], polygon[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) &&
			pt.Lng < (vj.Lng-vi.Lng)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
	}
	return inside
}

// Evaluator tests positions against safe-zone geofences.
type Evaluator struct {
	log *zap.Logger
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(log *zap.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// InAnySafeZone reports whether pt is contained by any active fence. A
// fence whose payload fails to parse is logged and skipped; it never aborts
// evaluation of the remaining fences.
func (e *Evaluator) InAnySafeZone(pt Point, fences []entities.Geofence) bool {
	for i := range fences {
		fence := &fences[i]
		if !fence.Active {
			continue
		}
		polygon, err := ParsePolygon(fence.Coordinates)
		if err != nil {
			e.log.Warn("skipping malformed geofence",
				zap.Uint("geofence_id", fence.ID),
				zap.String("name", fence.Name),
				zap.Error(err))
			continue
		}
		if Contains(pt, polygon) {
			return true
		}
	}
	return false
}
