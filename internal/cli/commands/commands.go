package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cscrape/internal/cli"
	"cscrape/internal/config"
	"cscrape/internal/discovery"
	"cscrape/internal/logging"
	"cscrape/internal/parser"
	"cscrape/internal/storage"
	"cscrape/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	Check   *CheckCommand
	Query   *QueryCommand
	Dump    *DumpCommand
	List    *ListCommand
	Faills  *FaillsCommand
	Cache   *CacheCommand
	Migrate *MigrateCommand
	History *HistoryCommand

	closeLog func() error
}

// NewCommands creates all commands with dependencies. cfg is filled in once
// flags are parsed, so dependencies must read it lazily.
func NewCommands(cfg *config.Config) *Commands {
	filter := discovery.NewFilter()
	assertionParser := discovery.NewParser()
	failureParser := parser.NewFailureParser()
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, assertionParser)
	errorViewer := ui.NewErrorViewer(jsonStorage)

	return &Commands{
		Run:     NewRunCommand(cfg, filter, failureParser, jsonStorage, formatter, errorViewer),
		Check:   NewCheckCommand(cfg, formatter),
		Query:   NewQueryCommand(cfg),
		Dump:    NewDumpCommand(cfg),
		List:    NewListCommand(cfg, filter, formatter, jsonStorage),
		Faills:  NewFaillsCommand(cfg, jsonStorage, errorViewer),
		Cache:   NewCacheCommand(cfg),
		Migrate: NewMigrateCommand(cfg),
		History: NewHistoryCommand(cfg),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ProjectPath, "project", config.DefaultProjectPath, "Project root holding fixtures, simulators and .cscrape.yaml")
	pf.StringVar(&flags.ConfigFile, "config", "", "Config file (default <project>/.cscrape.yaml)")
	pf.IntVarP(&flags.DebugLevel, "debug-level", "d", 0, "Debug level; 10 logs queries, 20 traces the C parser")
	pf.StringVar(&flags.LogFile, "log-file", "", "Also write JSON logs to this file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded

		logger, closeLog, err := logging.New(logging.Options{
			Stderr:     os.Stderr,
			File:       cfg.GetLogPath(),
			DebugLevel: cfg.DebugLevel,
		})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		c.closeLog = closeLog
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if c.closeLog == nil {
			return nil
		}
		return c.closeLog()
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compile, run and check fixtures on every simulator",
		Long:  "Discover fixtures and simulators, run each fixture on each simulator in parallel and check the recorded values against the scraped sources",
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of workers (default from config, 4)")
	runCmd.Flags().StringVar(&flags.FixturesDir, "fixtures-dir", "", "Directory holding the fixtures")
	runCmd.Flags().StringVar(&flags.SimulatorsDir, "simulators-dir", "", "Directory holding the simulators")
	runCmd.Flags().StringSliceVarP(&flags.Fixtures, "test", "t", nil, "Fixture name patterns (supports wildcards, e.g. 'test_0*')")
	runCmd.Flags().StringSliceVarP(&flags.Simulators, "sim", "s", nil, "Simulator name patterns (supports wildcards)")
	runCmd.Flags().BoolVarP(&flags.AlwaysCompile, "always-compile", "a", false, "Run compile_and_run even when the cached results are current")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first failing job")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only jobs that failed in the last run")
	runCmd.Flags().BoolVar(&flags.OpenFaills, "open-faills", false, "Open the faills viewer when the run finishes with failures")
	runCmd.Flags().BoolVar(&flags.History, "history", false, "Record the run in the MySQL history database")
	rootCmd.AddCommand(runCmd)

	// Check command
	checkCmd := &cobra.Command{
		Use:   "check RESULTS...",
		Short: "Check existing results files against C sources",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.Check.Execute,
	}
	checkCmd.Flags().StringSliceVarP(&flags.Sources, "source", "S", nil, "C sources the results were produced from")
	checkCmd.Flags().StringVar(&flags.Target, "target", "", "Target to scrape for, overriding CONFIG_NAME")
	checkCmd.Flags().StringVar(&flags.MapFile, "map", "", "readelf dump (default results.map next to each results file)")
	checkCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of results files checked at once")
	_ = checkCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(checkCmd)

	// Query command
	queryCmd := &cobra.Command{
		Use:   "query [EXPR...]",
		Short: "Evaluate query expressions against C sources",
		RunE:  c.Query.Execute,
	}
	queryCmd.Flags().StringSliceVarP(&flags.Sources, "source", "S", nil, "C sources to scrape")
	queryCmd.Flags().StringVar(&flags.Target, "target", "", "Target to scrape for (default arm32)")
	queryCmd.Flags().StringVar(&flags.Snapshot, "snapshot", "", "JSON written by dump, used instead of --source")
	queryCmd.Flags().StringVar(&flags.MapFile, "map", "", "readelf dump providing addresses")
	queryCmd.Flags().StringArrayVarP(&flags.Expressions, "expr", "e", nil, "Expression to evaluate, e.g. \"obj.type_size('int')\"")
	rootCmd.AddCommand(queryCmd)

	// Dump command
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump everything scraped from C sources",
		RunE:  c.Dump.Execute,
	}
	dumpCmd.Flags().StringSliceVarP(&flags.Sources, "source", "S", nil, "C sources to scrape")
	dumpCmd.Flags().StringVar(&flags.Target, "target", "", "Target to scrape for (default arm32)")
	dumpCmd.Flags().StringVar(&flags.Snapshot, "snapshot", "", "JSON written by dump, used instead of --source")
	dumpCmd.Flags().StringVar(&flags.MapFile, "map", "", "readelf dump providing addresses")
	dumpCmd.Flags().StringVarP(&flags.Format, "format", "f", "json", "Output format: json or msgpack")
	dumpCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(dumpCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered fixtures",
		Long:  "Scan and list fixtures, or simulators, without running them",
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVar(&flags.FixturesDir, "fixtures-dir", "", "Directory holding the fixtures")
	listCmd.Flags().StringVar(&flags.SimulatorsDir, "simulators-dir", "", "Directory holding the simulators")
	listCmd.Flags().StringSliceVarP(&flags.Fixtures, "test", "t", nil, "Fixture name patterns (supports wildcards)")
	listCmd.Flags().StringSliceVarP(&flags.Simulators, "sim", "s", nil, "Simulator name patterns (supports wildcards)")
	listCmd.Flags().BoolVarP(&flags.ShowAssertions, "assertions", "c", false, "List the assertions of each fixture")
	listCmd.Flags().BoolVar(&flags.ListSimulators, "simulators", false, "List simulators instead of fixtures")
	rootCmd.AddCommand(listCmd)

	// Faills command
	faillsCmd := &cobra.Command{
		Use:   "faills",
		Short: "View failures interactively",
		Long:  "Display failures from the last run in an interactive viewer",
		RunE:  c.Faills.Execute,
	}
	rootCmd.AddCommand(faillsCmd)

	// Cache command
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the scrape cache",
		RunE:  c.Cache.Execute,
	}
	cacheCmd.Flags().BoolVar(&flags.ClearCache, "clear", false, "Remove every cached snapshot")
	rootCmd.AddCommand(cacheCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the history database and apply its migrations",
		RunE:  c.Migrate.Execute,
	}
	rootCmd.AddCommand(migrateCmd)

	// History command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the jobs that failed most often",
		RunE:  c.History.Execute,
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 10, "Number of jobs to show")
	rootCmd.AddCommand(historyCmd)
}
