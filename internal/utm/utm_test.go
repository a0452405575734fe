package utm

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference latitude/longitude come from an exact Krüger-series inverse on WGS84.
var referencePoints = []struct {
	name               string
	zone               int
	easting, northing  float64
	wantLat, wantLon   float64
	exactLat, exactLon float64
}{
	{"belo horizonte", 23, 609000.0, 7797000.0, -19.9203065, -43.9585545, -19.920306414, -43.958554536},
	{"pampulha", 23, 604512.5, 7808120.25, -19.8200761, -44.0020546, -19.820076008, -44.002054582},
	{"zone 1", 1, 400000.0, 9000000.0, -9.0454333, -177.9098795, -9.045433262, -177.909879532},
	{"zone 60", 60, 650000.0, 6000000.0, -36.1331155, 178.6670405, -36.133115341, 178.667040537},
	{"lima", 18, 279000.0, 8664000.0, -12.0780151, -77.0303428, -12.078015066, -77.030342819},
	{"montevideo", 21, 580000.0, 6137000.0, -34.9062819, -56.1243127, -34.906281778, -56.124312703},
	{"rio", 23, 686000.0, 7466000.0, -22.9036524, -43.186536, -22.903652300, -43.186535977},
	{"zone 23 west", 23, 250000.0, 8500000.0, -13.5577639, -47.3101013, -13.557763789, -47.310101277},
}

func TestConvertReferencePoints(t *testing.T) {
	for _, tc := range referencePoints {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.zone, tc.easting, tc.northing)
			require.NoError(t, err)

			assert.InDelta(t, tc.wantLat, got.Latitude, 1e-9)
			assert.InDelta(t, tc.wantLon, got.Longitude, 1e-9)

			assert.InDelta(t, tc.exactLat, got.Latitude, 1e-6, "latitude drifted from the geodetic reference")
			assert.InDelta(t, tc.exactLon, got.Longitude, 1e-6, "longitude drifted from the geodetic reference")
		})
	}
}

func TestConvertEquatorOnCentralMeridian(t *testing.T) {
	got, err := Convert(23, 500000, 10000000)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, got.Latitude, 1e-7)
	assert.InDelta(t, -45.0, got.Longitude, 1e-7)
	assert.Equal(t, CentralMeridian(23), got.Longitude)
}

func TestConvertZeroNorthingIsFinite(t *testing.T) {
	got, err := Convert(23, 500000, 0)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(got.Latitude) || math.IsInf(got.Latitude, 0))
	assert.False(t, math.IsNaN(got.Longitude) || math.IsInf(got.Longitude, 0))
	assert.Equal(t, -45.0, got.Longitude)
}

func TestConvertRoundsToSevenDecimals(t *testing.T) {
	for _, tc := range referencePoints {
		got := MustConvert(tc.zone, tc.easting, tc.northing)

		for _, v := range []float64{got.Latitude, got.Longitude} {
			scaled := v * precision
			assert.InDelta(t, math.Round(scaled), scaled, 1e-6, "%s: %v has more than 7 decimals", tc.name, v)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 1.0000001, round(1.00000005))
	assert.Equal(t, -45.0, round(-45.00000004))
	assert.Equal(t, 0.0, round(0.00000004))
}

func TestConvertDeterministic(t *testing.T) {
	first := MustConvert(23, 612345.67, 7795432.1)
	for i := 0; i < 100; i++ {
		again := MustConvert(23, 612345.67, 7795432.1)
		require.True(t, first.Equal(again))
		require.Equal(t, math.Float64bits(first.Latitude), math.Float64bits(again.Latitude))
		require.Equal(t, math.Float64bits(first.Longitude), math.Float64bits(again.Longitude))
	}
}

func TestConvertConcurrent(t *testing.T) {
	want := MustConvert(23, 609000, 7797000)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Convert(23, 609000, 7797000)
			if err != nil {
				errs <- err
				return
			}
			if !got.Equal(want) {
				errs <- errors.New("concurrent conversion diverged")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestConvertZoneShiftsLongitude(t *testing.T) {
	for zone := MinZone; zone < MaxZone; zone++ {
		a := MustConvert(zone, 609000, 7797000)
		b := MustConvert(zone+1, 609000, 7797000)

		assert.InDelta(t, 6.0, b.Longitude-a.Longitude, 1e-6, "zone %d -> %d", zone, zone+1)
		assert.Equal(t, a.Latitude, b.Latitude, "latitude must not depend on zone")
	}
}

func TestConvertInvalidInput(t *testing.T) {
	tests := []struct {
		name              string
		zone              int
		easting, northing float64
	}{
		{"zone zero", 0, 500000, 7797000},
		{"zone above range", 61, 500000, 7797000},
		{"negative zone", -3, 500000, 7797000},
		{"nan easting", 23, math.NaN(), 7797000},
		{"inf northing", 23, 500000, math.Inf(1)},
		{"negative inf easting", 23, math.Inf(-1), 7797000},
		{"easting too small", 23, 99999.99, 7797000},
		{"easting too large", 23, 900000.01, 7797000},
		{"negative northing", 23, 500000, -1},
		{"northing beyond offset", 23, 500000, 10000000.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.zone, tc.easting, tc.northing)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
			assert.Equal(t, DecimalDegrees{}, got)
		})
	}
}

func TestMustConvertPanics(t *testing.T) {
	assert.Panics(t, func() { MustConvert(0, 500000, 7797000) })
	assert.NotPanics(t, func() { MustConvert(23, 500000, 7797000) })
}

func TestCoordinateToDecimalDegrees(t *testing.T) {
	c := NewCoordinate(23, 609000, 7797000)

	got, err := c.ToDecimalDegrees()
	require.NoError(t, err)

	assert.Equal(t, NewDecimalDegrees(-19.9203065, -43.9585545), got)
	assert.Equal(t, "23 609000.000 7797000.000", c.String())
	assert.Equal(t, "-19.9203065,-43.9585545", got.String())
}

func TestDecimalDegreesEqual(t *testing.T) {
	a := NewDecimalDegrees(-19.9203065, -43.9585545)

	assert.True(t, a.Equal(NewDecimalDegrees(-19.9203065, -43.9585545)))
	assert.False(t, a.Equal(NewDecimalDegrees(-19.9203065, -43.9585546)))
	assert.False(t, a.Equal(NewDecimalDegrees(-19.9203066, -43.9585545)))
}

func BenchmarkConvert(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Convert(23, 609000, 7797000)
	}
}
