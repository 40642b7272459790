package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cscrape/internal/config"
	"cscrape/internal/discovery"
	"cscrape/internal/domain"
	"cscrape/internal/storage"
	"cscrape/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		filter:    filter,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	if lc.config.Flags.ListSimulators {
		sims, err := scanSimulators(lc.config, lc.filter)
		if err != nil {
			return err
		}
		if len(sims) == 0 {
			color.Yellow("No simulators found")
			return nil
		}
		lc.formatter.PrintSimulatorList(sims)
		return nil
	}

	fixtures, err := scanFixtures(lc.config, lc.filter)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		color.Yellow("No fixtures found")
		return nil
	}

	// A missing last run just means nothing is marked
	var last *domain.RunOutput
	if output, err := lc.storage.Load(); err == nil {
		last = output
	}
	lc.formatter.PrintFixtureList(fixtures, lc.config.Flags.ShowAssertions, failedFixtures(last))
	if lc.config.Flags.ShowAssertions {
		total, err := lc.formatter.CountAssertions(fixtures)
		if err != nil {
			return err
		}
		color.Green("\n%d assertion(s) in %d fixture(s)", total, len(fixtures))
	}
	return nil
}
