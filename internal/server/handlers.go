// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hidejiunifei/faixaazul/internal/utm"
)

const (
	etagCap = 64

	// DefaultRadius is the nearby search radius in meters when none is given.
	DefaultRadius = 500.0
	// MaxRadius bounds the nearby search radius in meters.
	MaxRadius = 5000.0

	// PropDistance is the property added to nearby features.
	PropDistance = "distance_m"
)

// Routes registers every handler on a new mux wrapped in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/convert", s.HandleConvert)
	mux.HandleFunc("GET /api/feeds", s.HandleFeedsList)
	mux.HandleFunc("GET /api/feeds/{name}/nearby", s.HandleNearby)
	mux.HandleFunc("GET /feeds/{name}/segments.geojson", s.HandleSegments)

	return RequestLogger(mux)
}

// HandleConvert converts a single UTM coordinate given as query parameters.
// The zone falls back to the configured default.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	zone := s.Config.Zone
	if v := q.Get("zone"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid zone %q", v))
			return
		}
		zone = z
	}

	easting, err := floatParam(q, "easting")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	northing, err := floatParam(q, "northing")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dd, err := utm.Convert(zone, easting, northing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dd)
}

type feedSummary struct {
	Index     *int   `json:"index,omitempty"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Zone      int    `json:"zone"`
	Segments  int    `json:"segments"`
	Available bool   `json:"available"`
}

// HandleFeedsList serves the configured feeds with their availability.
func (s *ServerContext) HandleFeedsList(w http.ResponseWriter, r *http.Request) {
	list := make([]feedSummary, 0, len(s.Config.Feeds))
	for _, feed := range s.Config.Feeds {
		data, ok := s.Feeds[feed.Name]
		if !ok {
			continue
		}
		list = append(list, feedSummary{
			Index:     feed.Index,
			Name:      feed.Name,
			Title:     feed.Title,
			Zone:      feed.Zone,
			Segments:  len(data.Segments),
			Available: data.Available(),
		})
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleSegments serves the processed GeoJSON of a feed.
func (s *ServerContext) HandleSegments(w http.ResponseWriter, r *http.Request) {
	data, ok := s.feed(r.PathValue("name"))
	if !ok || !data.Available() {
		http.NotFound(w, r)
		return
	}

	if !s.serveFile(w, r, data.Path, "application/geo+json") {
		http.NotFound(w, r)
	}
}

// HandleNearby serves the segments of a feed within radius meters of a point,
// nearest first.
func (s *ServerContext) HandleNearby(w http.ResponseWriter, r *http.Request) {
	data, ok := s.feed(r.PathValue("name"))
	if !ok || !data.Available() {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}

	q := r.URL.Query()
	lat, err := floatParam(q, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := floatParam(q, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		writeError(w, http.StatusBadRequest, "lat/lon out of range")
		return
	}

	radius := DefaultRadius
	if q.Has("radius") {
		radius, err = floatParam(q, "radius")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if radius <= 0 || radius > MaxRadius {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("radius must be in (0, %.0f]", MaxRadius))
			return
		}
	}

	matches, err := data.Index.Within(utm.NewDecimalDegrees(lat, lon), radius)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(matches))}
	for _, m := range matches {
		f := m.Segment.GeoJSONFeature()
		f.Properties[PropDistance] = m.Distance
		fc.Features = append(fc.Features, f)
	}

	w.Header().Set("Content-Type", "application/geo+json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(fc)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
