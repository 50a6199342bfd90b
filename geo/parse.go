package geo

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Geofence is the result of parsing an imported catchment definition:
// exactly one of Point or Ring is set.
type Geofence struct {
	Point *Point
	Ring  []Point
}

// ParseImport parses the admin manager's import shortcut formats:
// GeoJSON Point/Polygon Feature (or bare geometry), ad-hoc
// {latitude, longitude} JSON, ad-hoc {coordinates: [...]} JSON, or CSV with
// header-detected lat/lng columns. Ad-hoc and CSV coordinates are [lat, lng];
// GeoJSON positions are [lng, lat].
func ParseImport(data []byte) (*Geofence, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty import")
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return parseJSONImport([]byte(trimmed))
	}
	return parseCSVImport(trimmed)
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type jsonImport struct {
	Type        string           `json:"type"`
	Geometry    *geoJSONGeometry `json:"geometry"`
	Coordinates json.RawMessage  `json:"coordinates"`
	Latitude    *float64         `json:"latitude"`
	Longitude   *float64         `json:"longitude"`
}

func parseJSONImport(data []byte) (*Geofence, error) {
	var doc jsonImport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// GeoJSON Feature wrapping a geometry
	if doc.Geometry != nil {
		return parseGeometry(doc.Geometry)
	}
	// Bare GeoJSON geometry
	if doc.Type == "Point" || doc.Type == "Polygon" {
		return parseGeometry(&geoJSONGeometry{Type: doc.Type, Coordinates: doc.Coordinates})
	}
	// Ad-hoc {latitude, longitude}
	if doc.Latitude != nil && doc.Longitude != nil {
		p := Point{Lat: *doc.Latitude, Lng: *doc.Longitude}
		if !p.Valid() {
			return nil, fmt.Errorf("latitude/longitude out of range")
		}
		return &Geofence{Point: &p}, nil
	}
	// Ad-hoc {coordinates: [[lat,lng], ...]}
	if len(doc.Coordinates) > 0 {
		var pairs [][]float64
		if err := json.Unmarshal(doc.Coordinates, &pairs); err != nil {
			return nil, fmt.Errorf("coordinates must be an array of [lat,lng] pairs: %w", err)
		}
		ring, err := RingFromLatLngPairs(pairs)
		if err != nil {
			return nil, err
		}
		if err := ValidateRing(ring); err != nil {
			return nil, err
		}
		return &Geofence{Ring: CloseRing(ring)}, nil
	}
	return nil, fmt.Errorf("unrecognized JSON import format")
}

func parseGeometry(g *geoJSONGeometry) (*Geofence, error) {
	switch g.Type {
	case "Point":
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return nil, fmt.Errorf("invalid Point coordinates: %w", err)
		}
		p, err := FromGeoJSON(pos)
		if err != nil {
			return nil, err
		}
		return &Geofence{Point: &p}, nil
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("invalid Polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("polygon has no rings")
		}
		ring := make([]Point, 0, len(rings[0]))
		for _, pos := range rings[0] {
			p, err := FromGeoJSON(pos)
			if err != nil {
				return nil, err
			}
			ring = append(ring, p)
		}
		if err := ValidateRing(ring); err != nil {
			return nil, err
		}
		return &Geofence{Ring: CloseRing(ring)}, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// parseCSVImport accepts a CSV with a header row; the lat/lng columns are
// detected by name (lat/latitude and lng/lon/long/longitude).
func parseCSVImport(text string) (*Geofence, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV needs a header row and at least one data row")
	}

	latCol, lngCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "lat", "latitude":
			latCol = i
		case "lng", "lon", "long", "longitude":
			lngCol = i
		}
	}
	if latCol < 0 || lngCol < 0 {
		return nil, fmt.Errorf("CSV header must name lat and lng columns")
	}

	var points []Point
	for i, row := range records[1:] {
		if latCol >= len(row) || lngCol >= len(row) {
			return nil, fmt.Errorf("row %d is missing coordinate columns", i+2)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latitude %q", i+2, row[latCol])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(row[lngCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad longitude %q", i+2, row[lngCol])
		}
		p := Point{Lat: lat, Lng: lng}
		if !p.Valid() {
			return nil, fmt.Errorf("row %d: coordinate out of range", i+2)
		}
		points = append(points, p)
	}

	switch {
	case len(points) == 1:
		return &Geofence{Point: &points[0]}, nil
	case len(points) >= MinRingVertices:
		return &Geofence{Ring: CloseRing(points)}, nil
	default:
		return nil, fmt.Errorf("CSV needs 1 point or at least %d polygon points, got %d", MinRingVertices, len(points))
	}
}
