// Package geo handles feed data structures, segment geometry and GeoJSON encoding.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// FeatureCollection is a WFS GeoJSON payload with projected coordinates.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single feed feature. Coordinates stay raw until Lines is called.
type Feature struct {
	ID         any            `json:"id,omitempty"`
	Properties map[string]any `json:"properties"`
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry is a feature geometry with undecoded coordinates.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Position is an [x, y] pair as found in the feed (easting, northing).
type Position [2]float64

// Decode reads a FeatureCollection from r.
func Decode(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode feature collection: unexpected type %q", fc.Type)
	}
	return &fc, nil
}

// IDString returns the feature id as text, or "" when the feature has none.
func (f Feature) IDString() string {
	return stringify(f.ID)
}

// Label returns the property named key as text.
func (f Feature) Label(key string) string {
	if f.Properties == nil {
		return ""
	}
	return stringify(f.Properties[key])
}

// Lines returns the coordinate lines of the feature geometry.
// Polygons contribute their outer ring only.
func (f Feature) Lines() ([][]Position, error) {
	if f.Geometry == nil {
		return nil, fmt.Errorf("feature %s: missing geometry", f.IDString())
	}

	g := f.Geometry
	switch g.Type {
	case "LineString":
		var line []Position
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("feature %s: %s coordinates: %w", f.IDString(), g.Type, err)
		}
		return [][]Position{line}, nil

	case "MultiLineString":
		var lines [][]Position
		if err := json.Unmarshal(g.Coordinates, &lines); err != nil {
			return nil, fmt.Errorf("feature %s: %s coordinates: %w", f.IDString(), g.Type, err)
		}
		return lines, nil

	case "Polygon":
		var rings [][]Position
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("feature %s: %s coordinates: %w", f.IDString(), g.Type, err)
		}
		if len(rings) == 0 {
			return nil, nil
		}
		return rings[:1], nil

	case "MultiPolygon":
		var polygons [][][]Position
		if err := json.Unmarshal(g.Coordinates, &polygons); err != nil {
			return nil, fmt.Errorf("feature %s: %s coordinates: %w", f.IDString(), g.Type, err)
		}
		if len(polygons) == 0 || len(polygons[0]) == 0 {
			return nil, nil
		}
		return polygons[0][:1], nil
	}

	return nil, fmt.Errorf("feature %s: unsupported geometry type %q", f.IDString(), g.Type)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
