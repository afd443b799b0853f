package geo

import (
	"fmt"

	"github.com/golang/geo/s2"
)

const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	MetersPerNM       = 1852.0    // Meters per nautical mile
)

// Point is a WGS84 coordinate in GeoJSON order: longitude first.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point is a plausible WGS84 fix.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Polygon is a closed ring of vertices. The closing vertex is not stored;
// the edge from the last vertex back to the first is implied.
type Polygon struct {
	vertices []Point
	area     float64 // steradians
}

// NewPolygon builds a polygon from a vertex ring. An explicit closing
// vertex (first == last) is accepted and dropped. At least 3 distinct
// vertices are required.
func NewPolygon(vertices []Point) (*Polygon, error) {
	if len(vertices) > 1 && vertices[0] == vertices[len(vertices)-1] {
		vertices = vertices[:len(vertices)-1]
	}
	if len(vertices) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(vertices))
	}
	for _, v := range vertices {
		if !v.Valid() {
			return nil, fmt.Errorf("polygon vertex out of range: lon=%v lat=%v", v.Lon, v.Lat)
		}
	}

	pts := make([]s2.Point, len(vertices))
	for i, v := range vertices {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(v.Lat, v.Lon))
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()

	return &Polygon{
		vertices: append([]Point(nil), vertices...),
		area:     loop.Area(),
	}, nil
}

// Vertices returns the vertex ring. Callers must not modify it.
func (poly *Polygon) Vertices() []Point {
	return poly.vertices
}

// Area returns the spherical area of the polygon in steradians. Used to
// order overlapping sectors; smaller sectors are the more specific match.
func (poly *Polygon) Area() float64 {
	return poly.area
}

// Contains tests the point against the ring with even-odd ray casting.
// Points exactly on an edge may land on either side; sector boundaries on
// the network are coarse enough that this does not matter in practice.
func (poly *Polygon) Contains(p Point) bool {
	pts := poly.vertices
	inside := false
	for i := 0; i < len(pts); i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if (a.Lat <= p.Lat && p.Lat < b.Lat) || (b.Lat <= p.Lat && p.Lat < a.Lat) {
			x := a.Lon + (p.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if x > p.Lon {
				inside = !inside
			}
		}
	}
	return inside
}

// NMDistance returns the great-circle distance between two points in
// nautical miles.
func NMDistance(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusMeters / MetersPerNM
}
