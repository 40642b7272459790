package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cscrape/internal/cli"
	"cscrape/internal/cli/commands"
	"cscrape/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cscrape",
		Short: "Check C compilers against scraped declarations",
		Long: `Compile and run C fixtures on a set of simulators, then check the sizes,
offsets, enum values and addresses they print against what is scraped from
their sources.`,
		Version:       version,
		SilenceErrors: true,
	}

	// Filled in from flags, .cscrape.yaml and the environment before each command runs
	cfg := config.New()

	var flags cli.Flags

	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
