package processor

import (
	"github.com/hidejiunifei/faixaazul/internal/config"
	"github.com/hidejiunifei/faixaazul/internal/geo"
	"github.com/hidejiunifei/faixaazul/internal/utm"

	"github.com/rs/zerolog/log"
)

// Stats summarizes a feed conversion.
type Stats struct {
	Features        int
	SkippedFeatures int
	Vertices        int
	InvalidVertices int
	Segments        int
}

// BuildSegments converts every feature line of fc into lon/lat segments,
// one per pair of consecutive vertices. Vertices that fail conversion break
// the line: no segment is formed across them.
func BuildSegments(fc *geo.FeatureCollection, feed config.Feed, palette Palette) ([]geo.Segment, Stats) {
	var stats Stats
	if fc == nil {
		return nil, stats
	}

	segments := make([]geo.Segment, 0, len(fc.Features))

	for fi, feature := range fc.Features {
		stats.Features++

		lines, err := feature.Lines()
		if err != nil {
			stats.SkippedFeatures++
			log.Warn().Err(err).Str("feed", feed.Name).Int("feature", fi).Msg("Skipping feature")
			continue
		}

		permanence := feature.Label(feed.PermanenceKey)
		color := palette.Color(permanence)
		featureID := feature.IDString()
		index := 0

		for _, line := range lines {
			var prev *utm.DecimalDegrees

			for _, pos := range line {
				stats.Vertices++

				dd, err := utm.Convert(feed.Zone, pos[0], pos[1])
				if err != nil {
					stats.InvalidVertices++
					log.Debug().Err(err).
						Str("feed", feed.Name).
						Str("feature_id", featureID).
						Msg("Skipping vertex")
					prev = nil
					continue
				}

				if prev != nil {
					segments = append(segments, geo.Segment{
						FeatureID:  featureID,
						Feature:    fi,
						Index:      index,
						Start:      *prev,
						End:        dd,
						Permanence: permanence,
						Color:      color,
						Length:     geo.SegmentLength(*prev, dd),
					})
					index++
				}

				prev = &dd
			}
		}
	}

	stats.Segments = len(segments)
	return segments, stats
}
