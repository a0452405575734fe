package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"
	"gopkg.in/yaml.v3"

	"github.com/hidejiunifei/faixaazul/internal/utm"
)

// Record is a converted input line.
type Record struct {
	Line      int     `json:"line"      yaml:"line"`
	Zone      int     `json:"zone"      yaml:"zone"`
	Easting   float64 `json:"easting"   yaml:"easting"`
	Northing  float64 `json:"northing"  yaml:"northing"`
	Latitude  float64 `json:"latitude"  yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// LineError reports an input line that could not be converted.
type LineError struct {
	Err  error
	Line int
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// convertAll converts every non-empty, non-comment line of r.
// zone is used for two-column lines; zero means such lines are rejected.
func convertAll(r io.Reader, zone int) ([]Record, []error, error) {
	records := make([]Record, 0)
	var lineErrs []error

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := parseLine(line, zone)
		if err == nil {
			var dd utm.DecimalDegrees
			if dd, err = c.ToDecimalDegrees(); err == nil {
				records = append(records, Record{
					Line:      n,
					Zone:      c.Zone,
					Easting:   c.Easting,
					Northing:  c.Northing,
					Latitude:  dd.Latitude,
					Longitude: dd.Longitude,
				})
				continue
			}
		}
		lineErrs = append(lineErrs, &LineError{Line: n, Err: err})
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return records, lineErrs, nil
}

// parseLine reads "zone easting northing" or "easting northing".
// Fields may be separated by spaces, tabs, commas or semicolons, and the
// zone may carry a latitude band letter ("23K").
func parseLine(line string, zone int) (utm.Coordinate, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})

	switch len(fields) {
	case 2:
		if zone == 0 {
			return utm.Coordinate{}, errors.New("two columns need --zone")
		}
	case 3:
		z, err := strconv.Atoi(strings.TrimRightFunc(fields[0], unicode.IsLetter))
		if err != nil {
			return utm.Coordinate{}, fmt.Errorf("invalid zone %q", fields[0])
		}
		zone = z
		fields = fields[1:]
	default:
		return utm.Coordinate{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(fields))
	}

	easting, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return utm.Coordinate{}, fmt.Errorf("invalid easting %q", fields[0])
	}
	northing, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return utm.Coordinate{}, fmt.Errorf("invalid northing %q", fields[1])
	}

	return utm.NewCoordinate(zone, easting, northing), nil
}

// encode marshals records as indented JSON, compact JSON or YAML.
func encode(records []Record, format string, compact bool) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(records)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil || !compact {
		return data, err
	}

	m := minify.New()
	m.AddFunc("application/json", mjson.Minify)
	return m.Bytes("application/json", data)
}
