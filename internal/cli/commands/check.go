package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cscrape/internal/config"
	"cscrape/internal/execution"
	"cscrape/internal/parser"
	"cscrape/internal/ui"
	"cscrape/internal/verify"
)

// CheckCommand checks results files produced outside of the harness
type CheckCommand struct {
	config    *config.Config
	formatter *ui.Formatter
	results   *parser.ResultsParser
}

// NewCheckCommand creates a new CheckCommand
func NewCheckCommand(cfg *config.Config, formatter *ui.Formatter) *CheckCommand {
	return &CheckCommand{
		config:    cfg,
		formatter: formatter,
		results:   parser.NewResultsParser(),
	}
}

// Execute runs the command
func (cc *CheckCommand) Execute(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	verifier, err := newVerifier(cc.config, logger)
	if err != nil {
		return err
	}
	sources := execution.OrderSources(cc.config.Flags.Sources)

	reports := make([]*verify.Report, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(cc.config.Processors, 1))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := cc.check(verifier, sources, path, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, rep := range reports {
		cc.formatter.PrintReport(args[i], rep)
		if rep.Errors > 0 {
			failed++
		}
	}
	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d results file(s) with errors", failed)
	}
	color.Green("✓ All records match")
	return nil
}

func (cc *CheckCommand) check(verifier *execution.Verifier, sources []string, path string, logger *slog.Logger) (*verify.Report, error) {
	res, err := cc.results.ParseFile(path)
	target := cc.config.Flags.Target
	switch {
	case err == nil:
		if target == "" {
			target = res.ConfigName
		}
	case errors.Is(err, parser.ErrNoConfigName) && target != "":
	default:
		return nil, err
	}
	if !res.Completed() {
		logger.Warn("results file is incomplete", "path", path)
	}

	s, err := verifier.Scrape(target, sources)
	if err != nil {
		return nil, err
	}

	mapPath := cc.config.Flags.MapFile
	if mapPath == "" {
		candidate := filepath.Join(filepath.Dir(path), parser.MapFile)
		if _, err := os.Stat(candidate); err == nil {
			mapPath = candidate
		}
	}
	if mapPath != "" {
		if err := s.LoadReadelf(mapPath); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	}

	return verify.NewChecker(s).CheckAll(res.Records), nil
}
