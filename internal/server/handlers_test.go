package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hidejiunifei/faixaazul/internal/config"
	"github.com/hidejiunifei/faixaazul/internal/geo"
	"github.com/hidejiunifei/faixaazul/internal/processor"
	"github.com/hidejiunifei/faixaazul/internal/utm"
)

const testConfig = `
output: %s
feeds:
  - name: weekends
    url: testdata/weekends.json
    index: 2
  - name: weekdays
    title: Segunda a sexta
    url: testdata/weekdays.json
    aliases: [semana]
    index: 1
`

var testSegments = []geo.Segment{
	{
		FeatureID:  "ESTACIONAMENTO_ROTATIVO_SEGUNDA_SEXTA.1",
		Feature:    0,
		Index:      0,
		Start:      utm.NewDecimalDegrees(-19.92, -43.94),
		End:        utm.NewDecimalDegrees(-19.92, -43.939),
		Permanence: "2 HORA(S)",
		Color:      processor.Blue,
		Length:     104.6,
	},
	{
		FeatureID:  "ESTACIONAMENTO_ROTATIVO_SEGUNDA_SEXTA.2",
		Feature:    1,
		Index:      0,
		Start:      utm.NewDecimalDegrees(-19.93, -43.94),
		End:        utm.NewDecimalDegrees(-19.93, -43.939),
		Permanence: "1 HORA(S)",
		Color:      processor.Red,
		Length:     104.6,
	},
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfig, dir)))
	require.NoError(t, err)

	data, err := geo.EncodeSegments(testSegments)
	require.NoError(t, err)

	path := processor.SegmentsPath(dir, "weekdays")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return NewServerContext(cfg).Routes()
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServerContext(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfig, dir)))
	require.NoError(t, err)

	s := NewServerContext(cfg)

	assert.Equal(t, "weekdays", cfg.Feeds[0].Name, "feeds are sorted by index")
	assert.Equal(t, "weekdays", s.FeedResolver["semana"])
	assert.False(t, s.Feeds["weekdays"].Available())
	assert.False(t, s.Feeds["weekends"].Available())
}

func TestHandleConvert(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"explicit zone", "/api/convert?zone=23&easting=609000&northing=7797000"},
		{"default zone", "/api/convert?easting=609000&northing=7797000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var dd utm.DecimalDegrees
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dd))
			assert.Equal(t, utm.NewDecimalDegrees(-19.9203065, -43.9585545), dd)
		})
	}
}

func TestHandleConvertErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		target string
		want   string
	}{
		{"/api/convert?zone=23&easting=609000", "missing northing"},
		{"/api/convert?zone=x&easting=609000&northing=7797000", `invalid zone "x"`},
		{"/api/convert?zone=23&easting=abc&northing=7797000", `invalid easting "abc"`},
		{"/api/convert?zone=23&easting=50&northing=7797000", "invalid utm coordinate: easting 50.000 outside 100000-900000"},
		{"/api/convert?zone=61&easting=609000&northing=7797000", "invalid utm coordinate: zone 61 outside 1-60"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestHandleConvertMethod(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert?easting=609000&northing=7797000", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleFeedsList(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/api/feeds")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []feedSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)

	assert.Equal(t, "weekdays", list[0].Name)
	assert.Equal(t, "Segunda a sexta", list[0].Title)
	assert.Equal(t, config.DefaultZone, list[0].Zone)
	assert.Equal(t, 2, list[0].Segments)
	assert.True(t, list[0].Available)

	assert.Equal(t, "weekends", list[1].Name)
	assert.Zero(t, list[1].Segments)
	assert.False(t, list[1].Available)
}

func TestHandleSegments(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/feeds/semana/segments.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	segments, err := geo.DecodeSegments(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, testSegments, segments)

	rec = get(t, h, "/feeds/weekdays/segments.geojson", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandleSegmentsNotFound(t *testing.T) {
	h := newTestServer(t)

	for _, target := range []string{
		"/feeds/weekends/segments.geojson",
		"/feeds/unknown/segments.geojson",
		"/feeds/weekdays/other.geojson",
	} {
		assert.Equal(t, http.StatusNotFound, get(t, h, target).Code, target)
	}
}

func TestHandleNearby(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"default radius", "/api/feeds/weekdays/nearby?lat=-19.9205&lon=-43.9395", []string{"0-0"}},
		{"wide radius", "/api/feeds/semana/nearby?lat=-19.9205&lon=-43.9395&radius=1200", []string{"0-0", "1-0"}},
		{"empty", "/api/feeds/weekdays/nearby?lat=-19.8&lon=-43.9", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

			var fc geojson.FeatureCollection
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))

			ids := make([]string, 0, len(fc.Features))
			for _, f := range fc.Features {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHandleNearbyDistance(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/api/feeds/weekdays/nearby?lat=-19.9205&lon=-43.9395")
	require.Equal(t, http.StatusOK, rec.Code)

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)

	props := fc.Features[0].Properties
	assert.InDelta(t, 55.6, props[PropDistance], 0.5)
	assert.Equal(t, processor.Blue, props[geo.PropStroke])
}

func TestHandleNearbyErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		target string
		code   int
	}{
		{"/api/feeds/weekdays/nearby?lon=-43.9395", http.StatusBadRequest},
		{"/api/feeds/weekdays/nearby?lat=-19.9&lon=x", http.StatusBadRequest},
		{"/api/feeds/weekdays/nearby?lat=-91&lon=-43.9", http.StatusBadRequest},
		{"/api/feeds/weekdays/nearby?lat=-19.9&lon=-43.9&radius=0", http.StatusBadRequest},
		{"/api/feeds/weekdays/nearby?lat=-19.9&lon=-43.9&radius=99999", http.StatusBadRequest},
		{"/api/feeds/weekends/nearby?lat=-19.9&lon=-43.9", http.StatusNotFound},
		{"/api/feeds/unknown/nearby?lat=-19.9&lon=-43.9", http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, get(t, h, tt.target).Code, tt.target)
	}
}
