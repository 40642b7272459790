package execution

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cscrape/internal/domain"
	"cscrape/internal/parser"
	"cscrape/internal/scrape"
	"cscrape/internal/storage"
	"cscrape/internal/verify"
)

// ReportFile holds the checker report written next to the results
const ReportFile = "results.report"

// Outcome is what verifying one job's results produced
type Outcome struct {
	ConfigName string
	SourceFile string
	Report     *verify.Report
}

// Verifier checks a job's results against the scraped fixture sources
type Verifier struct {
	registry   *scrape.Registry
	cache      *storage.ScrapeCache
	results    *parser.ResultsParser
	logger     *slog.Logger
	debugLevel int
}

// NewVerifier creates a Verifier. cache may be nil to always scrape.
func NewVerifier(registry *scrape.Registry, cache *storage.ScrapeCache, logger *slog.Logger, debugLevel int) *Verifier {
	if registry == nil {
		registry = scrape.NewRegistry()
	}
	return &Verifier{
		registry:   registry,
		cache:      cache,
		results:    parser.NewResultsParser(),
		logger:     logger,
		debugLevel: debugLevel,
	}
}

// Verify reads the results in dir and checks every record
func (v *Verifier) Verify(job domain.Job, dir string) (*Outcome, error) {
	res, err := v.results.ParseFile(filepath.Join(dir, parser.ResultsFile))
	configName := job.Simulator.Target
	switch {
	case err == nil:
		if configName == "" {
			configName = res.ConfigName
		}
	case errors.Is(err, parser.ErrNoConfigName) && configName != "":
	default:
		return nil, err
	}

	s, err := v.Scrape(configName, OrderSources(job.Fixture.Sources))
	if err != nil {
		return nil, err
	}

	mapPath := filepath.Join(dir, parser.MapFile)
	if _, err := os.Stat(mapPath); err == nil {
		if err := s.LoadReadelf(mapPath); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	}

	rep := verify.NewChecker(s).CheckAll(res.Records)
	var buf bytes.Buffer
	if _, err := rep.WriteTo(&buf); err == nil {
		if err := os.WriteFile(filepath.Join(dir, ReportFile), buf.Bytes(), 0o644); err != nil {
			v.logger.Warn("write report", "err", err)
		}
	}

	return &Outcome{
		ConfigName: configName,
		SourceFile: mainSource(job.Fixture.Sources),
		Report:     rep,
	}, nil
}

// Scrape parses files for the named target, going through the scrape cache
// when one is configured.
func (v *Verifier) Scrape(configName string, files []string) (*scrape.Scraper, error) {
	s := scrape.New(
		scrape.WithRegistry(v.registry),
		scrape.WithLogger(v.logger),
		scrape.WithDebugLevel(v.debugLevel),
	)
	if err := s.Config(configName); err != nil {
		return nil, err
	}

	var key string
	if v.cache != nil {
		k, err := storage.Key(s.Target(), files)
		if err != nil {
			return nil, err
		}
		key = k
		snap, found, err := v.cache.Get(key)
		if err != nil {
			v.logger.Warn("scrape cache", "key", key, "err", err)
		}
		if found {
			if err := s.Restore(snap); err == nil {
				v.logger.Debug("scrape cache hit", "key", key)
				return s, nil
			}
		}
	}

	for _, f := range files {
		if err := s.ParseFile(f); err != nil {
			return nil, err
		}
	}

	if v.cache != nil {
		if err := v.cache.Put(key, s.Snapshot()); err != nil {
			v.logger.Warn("scrape cache", "key", key, "err", err)
		}
	}
	return s, nil
}

// OrderSources puts headers before C files, each group in its given order
func OrderSources(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasSuffix(f, ".h") {
			out = append(out, f)
		}
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".h") {
			out = append(out, f)
		}
	}
	return out
}

// mainSource is the file assertion lines refer to
func mainSource(files []string) string {
	for _, f := range files {
		if filepath.Base(f) == "test.c" {
			return f
		}
	}
	for _, f := range files {
		if strings.HasSuffix(f, ".c") {
			return f
		}
	}
	return ""
}
