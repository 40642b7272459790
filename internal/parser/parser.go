// Package parser reads the files a simulator leaves in its cache directory
// and turns checker reports into stored failures.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cscrape/internal/record"
)

const (
	// ResultsFile is the captured stdout of the fixture
	ResultsFile = "results.txt"
	// MapFile is the readelf dump of the linked fixture
	MapFile = "results.map"
	// CompletedMarker must appear on a line of its own once the fixture is done
	CompletedMarker = "\nTEST COMPLETED\n"
)

var (
	ErrNoResults    = errors.New("no results.txt file")
	ErrIncomplete   = errors.New("results file does not have 'TEST COMPLETED'")
	ErrNoConfigName = errors.New("could not find 'CONFIG_NAME:'")
)

var configNamePattern = regexp.MustCompile(`(?m)^CONFIG_NAME:(.*)$`)

// Results is the parsed content of a results file
type Results struct {
	Path       string
	ConfigName string
	Records    []record.Record
	Raw        string
}

// ResultsParser reads results files
type ResultsParser struct{}

// NewResultsParser creates a new ResultsParser
func NewResultsParser() *ResultsParser {
	return &ResultsParser{}
}

// Check verifies that the run finished without reading the records
func (p *ResultsParser) Check(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoResults
		}
		return fmt.Errorf("read results: %w", err)
	}
	if !strings.Contains(normalize(string(data)), CompletedMarker) {
		return ErrIncomplete
	}
	return nil
}

// normalize turns CRLF line endings into LF
func normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// ParseFile reads a results file. Like Parse, it returns the records along
// with ErrNoConfigName.
func (p *ResultsParser) ParseFile(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoResults)
		}
		return nil, fmt.Errorf("read results: %w", err)
	}
	res, err := p.Parse(string(data))
	res.Path = path
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Parse extracts the target name and the records. A missing CONFIG_NAME line
// is an error; the records are still returned.
func (p *ResultsParser) Parse(text string) (*Results, error) {
	text = normalize(text)
	res := &Results{Raw: text, Records: record.Parse(text)}
	m := configNamePattern.FindStringSubmatch(text)
	if m == nil {
		return res, ErrNoConfigName
	}
	res.ConfigName = strings.TrimSpace(m[1])
	return res, nil
}

// Completed reports whether the results text carries the completion marker
func (r *Results) Completed() bool {
	return strings.Contains(r.Raw, CompletedMarker)
}
