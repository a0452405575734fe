// Package processor handles the downloading and conversion of parking segment feeds.
package processor

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hidejiunifei/faixaazul/internal/config"
	"github.com/hidejiunifei/faixaazul/internal/geo"

	"github.com/rs/zerolog/log"
)

// SegmentsFile is the name of the converted output inside a feed directory.
const SegmentsFile = "segments.geojson"

// Options control ProcessFeed.
type Options struct {
	Palette Palette
	OutDir  string
	Force   bool
}

// SegmentsPath returns where the converted segments of feed name are stored.
func SegmentsPath(outDir, name string) string {
	return filepath.Join(outDir, name, SegmentsFile)
}

// ProcessFeed fetches a feed, converts it into colored segments and writes
// them as GeoJSON. Existing output is kept unless opts.Force is set.
func ProcessFeed(ctx context.Context, client *http.Client, feed config.Feed, opts Options) (Stats, error) {
	destDir := filepath.Join(opts.OutDir, feed.Name)
	destFile := SegmentsPath(opts.OutDir, feed.Name)

	// Check if file exists
	if _, err := os.Stat(destFile); err == nil {
		if !opts.Force {
			log.Debug().Str("feed", feed.Name).Msg("Segments file exists, skipping")
			return Stats{}, nil
		}
	}

	log.Info().
		Str("feed", feed.Name).
		Str("source", feed.URL).
		Int("zone", feed.Zone).
		Msg("Processing feed")

	fc, err := Fetch(ctx, client, feed.URL)
	if err != nil {
		return Stats{}, err
	}

	segments, stats := BuildSegments(fc, feed, opts.Palette)

	if stats.InvalidVertices > 0 || stats.SkippedFeatures > 0 {
		log.Warn().
			Str("feed", feed.Name).
			Int("invalid_vertices", stats.InvalidVertices).
			Int("skipped_features", stats.SkippedFeatures).
			Msg("Feed converted with omissions")
	}

	data, err := geo.EncodeSegments(segments)
	if err != nil {
		return stats, err
	}

	if err := saveGeoJSON(destDir, destFile, data); err != nil {
		return stats, err
	}

	log.Info().
		Str("feed", feed.Name).
		Int("features", stats.Features).
		Int("segments", stats.Segments).
		Str("path", destFile).
		Msg("Feed processed")

	return stats, nil
}

// LoadSegments reads segments previously written by ProcessFeed.
func LoadSegments(path string) ([]geo.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return geo.DecodeSegments(data)
}

// saveGeoJSON writes the encoded feature collection to disk.
func saveGeoJSON(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	_, err = f.Write(data)
	return err
}
