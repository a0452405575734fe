package geo

import (
	"github.com/golang/geo/s2"

	"github.com/hidejiunifei/faixaazul/internal/utm"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// SegmentLength returns the great-circle distance between a and b in meters.
func SegmentLength(a, b utm.DecimalDegrees) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadius
}

// DistanceToSegment returns the distance in meters from p to the closest
// point of the segment a-b, measured on the sphere.
func DistanceToSegment(p, a, b utm.DecimalDegrees) float64 {
	if a.Equal(b) {
		return SegmentLength(p, a)
	}
	return s2.DistanceFromSegment(point(p), point(a), point(b)).Radians() * EarthRadius
}

func latLng(d utm.DecimalDegrees) s2.LatLng {
	return s2.LatLngFromDegrees(d.Latitude, d.Longitude)
}

func point(d utm.DecimalDegrees) s2.Point {
	return s2.PointFromLatLng(latLng(d))
}
