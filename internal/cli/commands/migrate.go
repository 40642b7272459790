package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cscrape/internal/config"
	"cscrape/internal/migration"
	"cscrape/internal/storage"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config *config.Config
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.Config) *MigrateCommand {
	return &MigrateCommand{config: cfg}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	var migrator migration.Migrator = migration.NewSchemaMigrator(migration.NewDatabaseManager(mc.config.Database))
	return migrator.Run(cmd.Context())
}

// HistoryCommand lists the jobs that failed in the most recorded runs
type HistoryCommand struct {
	config *config.Config
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(cfg *config.Config) *HistoryCommand {
	return &HistoryCommand{config: cfg}
}

// Execute runs the command
func (hc *HistoryCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	history, err := storage.OpenHistory(ctx, hc.config.Database)
	if err != nil {
		return err
	}
	defer history.Close()

	counts, err := history.MostFailing(ctx, max(hc.config.Flags.Limit, 1))
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		color.Green("✓ No failures recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIMULATOR\tFIXTURE\tFAILED RUNS")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.Simulator, c.Fixture, c.Runs)
	}
	return w.Flush()
}
