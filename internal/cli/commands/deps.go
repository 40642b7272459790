package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"cscrape/internal/config"
	"cscrape/internal/discovery"
	"cscrape/internal/domain"
	"cscrape/internal/execution"
	"cscrape/internal/scrape"
	"cscrape/internal/storage"
)

// defaultTarget is scraped for when neither a flag nor a results file names one
const defaultTarget = "arm32"

func scanFixtures(cfg *config.Config, filter *discovery.Filter) ([]domain.Fixture, error) {
	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	fixtures, err := scanner.ScanFixtures(cfg.GetFixturesPath())
	if err != nil {
		return nil, err
	}
	return filter.Fixtures(fixtures, cfg.Flags.Fixtures), nil
}

func scanSimulators(cfg *config.Config, filter *discovery.Filter) ([]domain.Simulator, error) {
	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	sims, err := scanner.ScanSimulators(cfg.GetSimulatorsPath())
	if err != nil {
		return nil, err
	}
	return filter.Simulators(sims, cfg.Flags.Simulators), nil
}

// loadRegistry returns the built-in targets plus those of the targets file,
// which is optional.
func loadRegistry(cfg *config.Config) (*scrape.Registry, error) {
	reg := scrape.NewRegistry()
	path := cfg.GetTargetsPath()
	if path == "" {
		return reg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return reg, nil
	}
	if err := reg.LoadFile(path); err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	return reg, nil
}

// openScrapeCache returns nil when the cache cannot be used; scraping then
// always parses.
func openScrapeCache(cfg *config.Config, logger *slog.Logger) *storage.ScrapeCache {
	cache, err := storage.OpenScrapeCache(cfg.GetScrapeCachePath())
	if err != nil {
		logger.Warn("scrape cache disabled", "err", err)
		return nil
	}
	return cache
}

func newVerifier(cfg *config.Config, logger *slog.Logger) (*execution.Verifier, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return execution.NewVerifier(reg, openScrapeCache(cfg, logger), logger, cfg.DebugLevel), nil
}

// scrapeSources scrapes the --source files for --target, or loads a --snapshot
// written by dump, then merges --map
func scrapeSources(cfg *config.Config, logger *slog.Logger) (*scrape.Scraper, error) {
	var s *scrape.Scraper
	var err error
	switch {
	case cfg.Flags.Snapshot != "":
		s, err = loadSnapshot(cfg, logger, cfg.Flags.Snapshot)
	case len(cfg.Flags.Sources) > 0:
		s, err = scrapeFiles(cfg, logger)
	default:
		return nil, errors.New("no --source or --snapshot given")
	}
	if err != nil {
		return nil, err
	}
	if cfg.Flags.MapFile != "" {
		if err := s.LoadReadelf(cfg.Flags.MapFile); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	}
	return s, nil
}

func scrapeFiles(cfg *config.Config, logger *slog.Logger) (*scrape.Scraper, error) {
	verifier, err := newVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	target := cfg.Flags.Target
	if target == "" {
		target = defaultTarget
	}
	return verifier.Scrape(target, execution.OrderSources(cfg.Flags.Sources))
}

func loadSnapshot(cfg *config.Config, logger *slog.Logger, path string) (*scrape.Scraper, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	s := scrape.New(scrape.WithRegistry(reg), scrape.WithLogger(logger), scrape.WithDebugLevel(cfg.DebugLevel))
	if err := s.LoadJSON(f); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return s, nil
}

// failedFixtures returns the fixtures with an unresolved failure on any simulator
func failedFixtures(output *domain.RunOutput) map[string]struct{} {
	failed := make(map[string]struct{})
	if output == nil {
		return failed
	}
	for _, f := range output.Details {
		if !f.Resolved {
			failed[f.Fixture] = struct{}{}
		}
	}
	return failed
}
