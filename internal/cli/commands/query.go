package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cscrape/internal/config"
	"cscrape/internal/expr"
	"cscrape/internal/storage"
	"cscrape/internal/verify"
)

// QueryCommand evaluates expressions against scraped sources
type QueryCommand struct {
	config *config.Config
}

// NewQueryCommand creates a new QueryCommand
func NewQueryCommand(cfg *config.Config) *QueryCommand {
	return &QueryCommand{config: cfg}
}

// Execute runs the command
func (qc *QueryCommand) Execute(cmd *cobra.Command, args []string) error {
	exprs := append(append([]string{}, qc.config.Flags.Expressions...), args...)
	if len(exprs) == 0 {
		return fmt.Errorf("no expression given")
	}

	s, err := scrapeSources(qc.config, slog.Default())
	if err != nil {
		return err
	}
	checker := verify.NewChecker(s)

	out := cmd.OutOrStdout()
	failed := 0
	for _, src := range exprs {
		v, err := checker.Eval(src)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s => %s\n", src, color.RedString("%s", expr.Repr(err)))
			continue
		}
		fmt.Fprintf(out, "%s => %s\n", src, expr.ReprValue(v))
	}
	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d expression(s) raised", failed)
	}
	return nil
}

// DumpCommand writes everything scraped from sources
type DumpCommand struct {
	config *config.Config
}

// NewDumpCommand creates a new DumpCommand
func NewDumpCommand(cfg *config.Config) *DumpCommand {
	return &DumpCommand{config: cfg}
}

// Execute runs the command
func (dc *DumpCommand) Execute(cmd *cobra.Command, args []string) (err error) {
	format := dc.config.Flags.Format
	if format != "json" && format != "msgpack" {
		return fmt.Errorf("unknown format %q (want json or msgpack)", format)
	}

	s, err := scrapeSources(dc.config, slog.Default())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path := dc.config.Flags.Output; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if format == "msgpack" {
		return storage.EncodeSnapshot(w, s.Snapshot())
	}
	return s.DumpJSON(w)
}
