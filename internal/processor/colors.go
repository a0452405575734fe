package processor

import (
	"strings"

	"github.com/hidejiunifei/faixaazul/internal/config"
)

// Stroke colors of the default palette.
const (
	Red    = "#FF0000"
	Blue   = "#0000FF"
	Green  = "#00FF00"
	Yellow = "#FFFF00"
)

// Palette maps a parking permanence label to a stroke color.
type Palette struct {
	Colors  map[string]string
	Default string
}

// DefaultPalette returns the colors used by the municipal map legend.
func DefaultPalette() Palette {
	return Palette{
		Colors: map[string]string{
			"1 HORA(S)": Red,
			"2 HORA(S)": Blue,
			"5 HORA(S)": Green,
		},
		Default: Yellow,
	}
}

// NewPalette returns the default palette overridden by the configured colors.
func NewPalette(cfg *config.Config) Palette {
	p := DefaultPalette()
	if cfg == nil {
		return p
	}

	for label, color := range cfg.Colors {
		p.Colors[normalizeLabel(label)] = color
	}
	if cfg.DefaultColor != "" {
		p.Default = cfg.DefaultColor
	}

	return p
}

// Color returns the stroke color for a permanence label.
func (p Palette) Color(label string) string {
	if c, ok := p.Colors[normalizeLabel(label)]; ok {
		return c
	}
	return p.Default
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}
