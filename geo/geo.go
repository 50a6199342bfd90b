// Package geo holds the canonical coordinate representation for the project.
// Everything internal is a Point{Lat, Lng}; wire formats that order
// coordinates differently (GeoJSON is [lng, lat]) convert at the boundary
// through the functions in this package and nowhere else.
package geo

import (
	"fmt"
	"math"
)

// MinRingVertices is the minimum number of vertices a jurisdiction polygon
// must have before the closing point is appended.
const MinRingVertices = 3

// Point is a single coordinate pair.
type Point struct {
	Lat float64 `json:"latitude" bson:"latitude"`
	Lng float64 `json:"longitude" bson:"longitude"`
}

// Valid reports whether the point is a finite, in-range coordinate pair.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// FromGeoJSON converts a GeoJSON position ([lng, lat]) to a Point.
func FromGeoJSON(position []float64) (Point, error) {
	if len(position) < 2 {
		return Point{}, fmt.Errorf("geojson position needs 2 values, got %d", len(position))
	}
	p := Point{Lat: position[1], Lng: position[0]}
	if !p.Valid() {
		return Point{}, fmt.Errorf("position [%v, %v] out of range", position[0], position[1])
	}
	return p, nil
}

// ToGeoJSON converts a Point to a GeoJSON position ([lng, lat]).
func (p Point) ToGeoJSON() []float64 {
	return []float64{p.Lng, p.Lat}
}

// CloseRing appends the first vertex to the end of the ring when the ring is
// not already closed. The admin client pads its form to 5 slots and closes
// the ring before sending; this is the server-side equivalent.
func CloseRing(ring []Point) []Point {
	if len(ring) == 0 {
		return ring
	}
	if ring[0] == ring[len(ring)-1] && len(ring) > 1 {
		return ring
	}
	return append(ring, ring[0])
}

// ValidateRing checks that the ring has at least MinRingVertices valid
// vertices, not counting the closing point.
func ValidateRing(ring []Point) error {
	open := ring
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		open = ring[:len(ring)-1]
	}
	valid := 0
	for _, p := range open {
		if p.Valid() {
			valid++
		}
	}
	if valid < MinRingVertices {
		return fmt.Errorf("jurisdiction polygon needs at least %d valid points, got %d", MinRingVertices, valid)
	}
	return nil
}

// LatLngPairs renders a ring as [lat, lng] pairs, the order the admin client
// stores jurisdiction coordinates in.
func LatLngPairs(ring []Point) [][]float64 {
	out := make([][]float64, 0, len(ring))
	for _, p := range ring {
		out = append(out, []float64{p.Lat, p.Lng})
	}
	return out
}

// RingFromLatLngPairs parses stored [lat, lng] pairs back into a ring.
func RingFromLatLngPairs(pairs [][]float64) ([]Point, error) {
	ring := make([]Point, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("pair %d needs 2 values, got %d", i, len(pair))
		}
		ring = append(ring, Point{Lat: pair[0], Lng: pair[1]})
	}
	return ring, nil
}

// Centroid returns the average of the valid vertices of a ring. The admin
// client derives an agency's location point the same way when only a
// jurisdiction is supplied.
func Centroid(ring []Point) (Point, error) {
	// a closed ring would otherwise count its first vertex twice
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	var sumLat, sumLng float64
	n := 0
	for _, p := range ring {
		if p.Valid() {
			sumLat += p.Lat
			sumLng += p.Lng
			n++
		}
	}
	if n == 0 {
		return Point{}, fmt.Errorf("no valid points in ring")
	}
	return Point{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}, nil
}
