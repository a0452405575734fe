package geo

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hidejiunifei/faixaazul/internal/utm"
)

// Segment is a converted line segment between two consecutive feed vertices.
type Segment struct {
	FeatureID  string
	Feature    int
	Index      int
	Start      utm.DecimalDegrees
	End        utm.DecimalDegrees
	Permanence string
	Color      string
	Length     float64
}

// Property keys used in encoded segment features.
const (
	PropFeatureID  = "feature_id"
	PropFeature    = "feature"
	PropSegment    = "segment"
	PropPermanence = "permanence"
	PropStroke     = "stroke"
	PropLength     = "length_m"
)

// LineString returns the segment as a two-point lon/lat geometry.
func (s Segment) LineString() *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, []float64{
		s.Start.Longitude, s.Start.Latitude,
		s.End.Longitude, s.End.Latitude,
	})
}

// GeoJSONFeature returns the segment as a GeoJSON feature.
func (s Segment) GeoJSONFeature() *geojson.Feature {
	return &geojson.Feature{
		ID:       fmt.Sprintf("%d-%d", s.Feature, s.Index),
		Geometry: s.LineString(),
		Properties: map[string]interface{}{
			PropFeatureID:  s.FeatureID,
			PropFeature:    s.Feature,
			PropSegment:    s.Index,
			PropPermanence: s.Permanence,
			PropStroke:     s.Color,
			PropLength:     s.Length,
		},
	}
}

// FeatureCollectionOf wraps segments into a GeoJSON feature collection.
func FeatureCollectionOf(segments []Segment) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(segments))}
	for _, s := range segments {
		fc.Features = append(fc.Features, s.GeoJSONFeature())
	}
	return fc
}

// EncodeSegments marshals segments as a GeoJSON FeatureCollection.
func EncodeSegments(segments []Segment) ([]byte, error) {
	data, err := json.Marshal(FeatureCollectionOf(segments))
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}
	return data, nil
}

// DecodeSegments parses a FeatureCollection written by EncodeSegments.
func DecodeSegments(data []byte) ([]Segment, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	segments := make([]Segment, 0, len(fc.Features))
	for i, f := range fc.Features {
		ls, ok := f.Geometry.(*geom.LineString)
		if !ok || ls.NumCoords() < 2 {
			return nil, fmt.Errorf("decode segments: feature %d is not a two-point line", i)
		}
		start, end := ls.Coord(0), ls.Coord(ls.NumCoords()-1)

		segments = append(segments, Segment{
			FeatureID:  stringify(f.Properties[PropFeatureID]),
			Feature:    intProp(f.Properties[PropFeature]),
			Index:      intProp(f.Properties[PropSegment]),
			Start:      utm.NewDecimalDegrees(start.Y(), start.X()),
			End:        utm.NewDecimalDegrees(end.Y(), end.X()),
			Permanence: stringify(f.Properties[PropPermanence]),
			Color:      stringify(f.Properties[PropStroke]),
			Length:     floatProp(f.Properties[PropLength]),
		})
	}

	return segments, nil
}

func intProp(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

func floatProp(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
