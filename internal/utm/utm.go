// Package utm converts Universal Transverse Mercator grid coordinates into
// geographic decimal degrees.
//
// The inverse projection is a closed-form ellipsoidal approximation with fixed
// constants. Northing values are expected with the 10,000,000 m false northing
// of the southern hemisphere already applied; the converter always removes it.
package utm

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned when a UTM triple is outside the domain
// the inverse projection is defined on.
var ErrInvalidCoordinate = errors.New("invalid utm coordinate")

// Accepted input ranges.
const (
	MinZone     = 1
	MaxZone     = 60
	MinEasting  = 100000.0
	MaxEasting  = 900000.0
	MinNorthing = 0.0
	MaxNorthing = 10000000.0
)

// Projection parameters. Declared as variables so every product and quotient
// below is evaluated in float64 at run time, operation by operation.
var (
	secondEccentricitySq = 0.006739496742
	meridianRadius       = 6366197.724
	polarCurvatureRadius = 6399593.625
	scaleFactor          = 0.9996
	falseNorthing        = 10000000.0
	falseEasting         = 500000.0
)

// precision is the rounding factor applied to both output axes (7 decimals).
const precision = 10000000.0

// Coordinate is a point on the UTM grid.
type Coordinate struct {
	Zone     int
	Easting  float64
	Northing float64
}

// NewCoordinate returns the UTM coordinate for the given zone, easting and northing.
func NewCoordinate(zone int, easting, northing float64) Coordinate {
	return Coordinate{Zone: zone, Easting: easting, Northing: northing}
}

// ToDecimalDegrees converts c to latitude and longitude.
func (c Coordinate) ToDecimalDegrees() (DecimalDegrees, error) {
	return Convert(c.Zone, c.Easting, c.Northing)
}

// Validate reports whether c lies in the accepted input ranges.
func (c Coordinate) Validate() error {
	if c.Zone < MinZone || c.Zone > MaxZone {
		return fmt.Errorf("%w: zone %d outside %d-%d", ErrInvalidCoordinate, c.Zone, MinZone, MaxZone)
	}
	if math.IsNaN(c.Easting) || math.IsInf(c.Easting, 0) {
		return fmt.Errorf("%w: easting is not finite", ErrInvalidCoordinate)
	}
	if math.IsNaN(c.Northing) || math.IsInf(c.Northing, 0) {
		return fmt.Errorf("%w: northing is not finite", ErrInvalidCoordinate)
	}
	if c.Easting < MinEasting || c.Easting > MaxEasting {
		return fmt.Errorf("%w: easting %.3f outside %.0f-%.0f", ErrInvalidCoordinate, c.Easting, MinEasting, MaxEasting)
	}
	if c.Northing < MinNorthing || c.Northing > MaxNorthing {
		return fmt.Errorf("%w: northing %.3f outside %.0f-%.0f", ErrInvalidCoordinate, c.Northing, MinNorthing, MaxNorthing)
	}
	return nil
}

// String formats c as "<zone> <easting> <northing>".
func (c Coordinate) String() string {
	return fmt.Sprintf("%d %.3f %.3f", c.Zone, c.Easting, c.Northing)
}

// DecimalDegrees is a geographic position in decimal degrees.
type DecimalDegrees struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NewDecimalDegrees returns the position at the given latitude and longitude.
func NewDecimalDegrees(latitude, longitude float64) DecimalDegrees {
	return DecimalDegrees{Latitude: latitude, Longitude: longitude}
}

// Equal reports whether d and o denote the same position.
func (d DecimalDegrees) Equal(o DecimalDegrees) bool {
	return d.Latitude == o.Latitude && d.Longitude == o.Longitude
}

// String formats d as "<lat>,<lon>".
func (d DecimalDegrees) String() string {
	return fmt.Sprintf("%.7f,%.7f", d.Latitude, d.Longitude)
}

// Convert transforms a UTM zone, easting and northing into decimal degrees,
// rounded to 7 decimal places on both axes.
func Convert(zone int, easting, northing float64) (DecimalDegrees, error) {
	if err := NewCoordinate(zone, easting, northing).Validate(); err != nil {
		return DecimalDegrees{}, err
	}

	lat, lon := inverse(zone, easting, northing)
	lat, lon = round(lat), round(lon)

	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return DecimalDegrees{}, fmt.Errorf("%w: %d %.3f %.3f has no finite solution",
			ErrInvalidCoordinate, zone, easting, northing)
	}

	return NewDecimalDegrees(lat, lon), nil
}

// MustConvert is like Convert but panics on invalid input.
func MustConvert(zone int, easting, northing float64) DecimalDegrees {
	dd, err := Convert(zone, easting, northing)
	if err != nil {
		panic(err)
	}
	return dd
}

// inverse evaluates the projection without validation or rounding.
// The evaluation order of every term is significant at the last bit.
func inverse(zone int, easting, northing float64) (lat, lon float64) {
	e2 := secondEccentricitySq
	north := northing - falseNorthing

	// footpoint latitude and radius of curvature
	phi := north / meridianRadius / scaleFactor
	cos2 := math.Pow(math.Cos(phi), 2)
	nu := scaleFactor * polarCurvatureRadius / math.Sqrt(1+e2*cos2)

	// easting displacement from the central meridian
	a := (easting - falseEasting) / nu
	xi := a * (1 - e2*math.Pow(a, 2)/2*cos2/3)
	negXi := -(easting - falseEasting) / nu * (1 - e2*math.Pow(a, 2)/2*cos2/3)
	sinhXi := (math.Exp(xi) - math.Exp(negXi)) / 2

	// meridian arc length at the footpoint
	sin2phi := math.Sin(2 * north / meridianRadius / scaleFactor)
	j2 := phi + sin2phi/2
	j4 := 3*j2 + sin2phi*cos2
	alpha := e2 * 3 / 4
	arc := scaleFactor * polarCurvatureRadius * (phi -
		alpha*j2 +
		math.Pow(alpha, 2)*5/3*j4/4 -
		math.Pow(alpha, 3)*35/27*(5*j4/4+sin2phi*cos2*cos2)/3)

	// isometric latitude correction
	b := (north-arc)/nu*(1-e2*math.Pow(a, 2)/2*cos2) + phi
	delta := math.Atan(sinhXi / math.Cos(b))
	tau := math.Atan(math.Cos(delta) * math.Tan(b))

	lat = (phi + (1+e2*cos2-e2*math.Sin(phi)*math.Cos(phi)*(tau-phi)*3/2)*(tau-phi)) * 180 / math.Pi
	lon = delta*180/math.Pi + float64(zone*6) - 183

	return lat, lon
}

// round keeps 7 decimal digits, rounding halves up.
func round(v float64) float64 {
	return math.Floor(v*precision+0.5) / precision
}

// CentralMeridian returns the longitude of the central meridian of zone.
func CentralMeridian(zone int) float64 {
	return float64(zone*6 - 183)
}
