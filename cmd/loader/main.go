package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hidejiunifei/faixaazul/internal/config"
	"github.com/hidejiunifei/faixaazul/internal/logger"
	"github.com/hidejiunifei/faixaazul/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	Output     string        `short:"o" long:"output"  env:"OUTPUT_DIR"   description:"Output directory, overrides the configuration"`
	Limit      []string      `short:"l" long:"limit"   env:"LIMIT_NAMES"  description:"Limit processing to specific feed names or aliases"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"HTTP_TIMEOUT" description:"Feed download timeout" default:"15s"`
	Force      bool          `short:"f" long:"force"   description:"Force overwrite of existing files"`
}

func main() {
	// Values from .env become flag defaults through the env tags
	envErr := godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if envErr != nil {
		log.Debug().Err(envErr).Msg("No .env file loaded")
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Output != "" {
		cfg.Output = opts.Output
	}

	client := &http.Client{Timeout: opts.Timeout}

	// Filter feeds if limit is set
	feedsToProcess := cfg.Feeds
	if len(opts.Limit) > 0 {
		feedsToProcess = make([]config.Feed, 0, len(opts.Limit))
		seen := make(map[string]bool)

		for _, limitName := range opts.Limit {
			feed, ok := cfg.Feed(limitName)
			if !ok {
				log.Error().
					Str("name", limitName).
					Msg("Feed specified in --limit not found in configuration")
				continue
			}
			if seen[feed.Name] {
				continue
			}
			seen[feed.Name] = true
			feedsToProcess = append(feedsToProcess, feed)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("feeds_total", len(cfg.Feeds)).
		Int("feeds_queued", len(feedsToProcess)).
		Str("output", cfg.Output).
		Bool("force", opts.Force).
		Msg("Starting loader")

	palette := processor.NewPalette(cfg)
	failed := 0

	for _, feed := range feedsToProcess {
		if ctx.Err() != nil {
			log.Warn().Msg("Loader interrupted")
			break
		}

		_, err := processor.ProcessFeed(ctx, client, feed, processor.Options{
			Palette: palette,
			OutDir:  cfg.Output,
			Force:   opts.Force,
		})
		if err != nil {
			failed++
			log.Error().Err(err).Str("feed", feed.Name).Msg("Failed to process feed")
		}
	}

	if failed > 0 {
		stop()
		log.Fatal().Int("failed", failed).Msg("Loader finished with errors")
	}

	log.Info().Msg("Loader finished successfully")
}
