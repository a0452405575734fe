package server

import (
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hidejiunifei/faixaazul/internal/config"
	"github.com/hidejiunifei/faixaazul/internal/geo"
	"github.com/hidejiunifei/faixaazul/internal/processor"
	"github.com/hidejiunifei/faixaazul/internal/spatial"
)

// FeedData is a configured feed together with its processed segments.
type FeedData struct {
	Index    *spatial.Index
	Path     string
	Segments []geo.Segment
	config.Feed
}

// Available reports whether processed segments were loaded for the feed.
func (f *FeedData) Available() bool {
	return f.Index != nil
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config       *config.Config
	FeedResolver map[string]string
	Feeds        map[string]*FeedData
}

// NewServerContext loads the processed segments of every configured feed
// and indexes them. Feeds without output on disk stay listed but unavailable.
func NewServerContext(cfg *config.Config) *ServerContext {
	log.Info().Int("config_feeds_count", len(cfg.Feeds)).Msg("Initializing server context")

	resolver := make(map[string]string)
	feeds := make(map[string]*FeedData, len(cfg.Feeds))
	available := 0

	for _, feed := range cfg.Feeds {
		data := &FeedData{
			Feed: feed,
			Path: processor.SegmentsPath(cfg.Output, feed.Name),
		}

		resolver[feed.Name] = feed.Name
		for _, alias := range feed.Aliases {
			resolver[alias] = feed.Name
		}
		feeds[feed.Name] = data

		if _, err := os.Stat(data.Path); os.IsNotExist(err) {
			log.Warn().
				Str("feed", feed.Name).
				Str("path", data.Path).
				Msg("Feed unavailable: segments file not found, run the loader first")
			continue
		}

		segments, err := processor.LoadSegments(data.Path)
		if err != nil {
			log.Error().Err(err).Str("feed", feed.Name).Msg("Feed unavailable: failed to load segments")
			continue
		}

		idx, err := spatial.NewIndex(segments...)
		if err != nil {
			log.Error().Err(err).Str("feed", feed.Name).Msg("Feed unavailable: failed to index segments")
			continue
		}

		data.Segments = segments
		data.Index = idx
		available++

		log.Debug().
			Str("feed", feed.Name).
			Int("segments", len(segments)).
			Msg("Feed loaded and indexed")
	}

	sort.Slice(cfg.Feeds, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if cfg.Feeds[i].Index != nil {
			idxI = *cfg.Feeds[i].Index
		}
		if cfg.Feeds[j].Index != nil {
			idxJ = *cfg.Feeds[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return cfg.Feeds[i].Name < cfg.Feeds[j].Name
	})

	log.Info().
		Int("available_feeds_count", available).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:       cfg,
		FeedResolver: resolver,
		Feeds:        feeds,
	}
}

// feed resolves a feed name or alias.
func (s *ServerContext) feed(name string) (*FeedData, bool) {
	realName, ok := s.FeedResolver[name]
	if !ok {
		return nil, false
	}
	data, ok := s.Feeds[realName]
	return data, ok
}
