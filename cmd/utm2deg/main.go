package main

import (
	"io"
	"os"

	"github.com/hidejiunifei/faixaazul/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input  string `short:"i" long:"in"     description:"Input file with one coordinate per line. Reads from stdin if empty"`
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Zone   int    `short:"z" long:"zone"   env:"UTM_ZONE" description:"UTM zone for two-column input"`
	Minify bool   `short:"m" long:"minify" description:"Compact JSON output"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	// Read Input
	var in io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open input file")
		}
		defer f.Close()
		in = f
	}

	records, lineErrs, err := convertAll(in, opts.Zone)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	for _, lineErr := range lineErrs {
		log.Warn().Err(lineErr).Msg("Skipping line")
	}

	data, err := encode(records, opts.Format, opts.Minify)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal records")
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output file")
		}
		log.Info().
			Int("converted", len(records)).
			Int("failed", len(lineErrs)).
			Str("path", opts.Output).
			Str("format", opts.Format).
			Msg("Coordinates converted")
	} else {
		os.Stdout.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			os.Stdout.Write([]byte{'\n'})
		}
	}

	if len(lineErrs) > 0 {
		os.Exit(1)
	}
}
