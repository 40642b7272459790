package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cscrape/internal/config"
	"cscrape/internal/discovery"
	"cscrape/internal/domain"
	"cscrape/internal/execution"
	"cscrape/internal/parser"
	"cscrape/internal/storage"
	"cscrape/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	filter    *discovery.Filter
	failures  *parser.FailureParser
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	failures *parser.FailureParser,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		filter:    filter,
		failures:  failures,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	jobs, err := rc.jobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		color.Yellow("No jobs to execute")
		return nil
	}

	verifier, err := newVerifier(rc.config, logger)
	if err != nil {
		return err
	}
	runner := execution.NewRunner(rc.config.AlwaysCompile, verifier, logger)
	pool := execution.NewWorkerPool(rc.config.Processors, runner, execution.NewRoundRobinScheduler())
	pool.SetProgress(ui.NewProgressBar(len(jobs)))

	logger.Debug("running jobs", "jobs", len(jobs), "workers", pool.Workers(), "fail_fast", rc.config.Flags.FailFast)
	results, duration, err := pool.ExecuteWithOptions(ctx, jobs, rc.config.Flags.FailFast)
	if err != nil {
		return err
	}

	output, err := rc.storage.Save(results, duration, pool.Workers())
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	if rc.config.Database.Enabled {
		rc.recordHistory(ctx, output, logger)
	}

	rc.formatter.PrintMetaStats(output)
	if output.Meta.FailedJobs == 0 {
		return nil
	}
	if rc.config.Flags.OpenFaills {
		if err := rc.viewer.View(output); err != nil {
			return err
		}
	}
	cmd.SilenceUsage = true
	return fmt.Errorf("%d job(s) failed", output.Meta.FailedJobs)
}

// jobs pairs every selected simulator with every selected fixture
func (rc *RunCommand) jobs() ([]domain.Job, error) {
	fixtures, err := scanFixtures(rc.config, rc.filter)
	if err != nil {
		return nil, err
	}
	sims, err := scanSimulators(rc.config, rc.filter)
	if err != nil {
		return nil, err
	}
	jobs := discovery.Jobs(sims, fixtures)

	if rc.config.Flags.OnlyFailed {
		last, err := rc.storage.Load()
		if err != nil {
			return nil, fmt.Errorf("load last run: %w", err)
		}
		jobs = rc.filter.Failed(jobs, rc.failures.FailedJobs(last))
	}
	return jobs, nil
}

func (rc *RunCommand) recordHistory(ctx context.Context, output *domain.RunOutput, logger *slog.Logger) {
	history, err := storage.OpenHistory(ctx, rc.config.Database)
	if err != nil {
		logger.Warn("history disabled", "err", err)
		return
	}
	defer history.Close()

	id, err := history.Record(ctx, output)
	if err != nil {
		logger.Warn("record history", "err", err)
		return
	}
	logger.Debug("run recorded", "run_id", id)
}
