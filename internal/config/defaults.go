package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultFixturesDir holds one directory per fixture
	DefaultFixturesDir = "tests/fixtures"
	// DefaultSimulatorsDir holds one directory per simulator
	DefaultSimulatorsDir = "tests/simulators"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = ".cscrape"
	// DefaultScrapeCacheDir is where scraped sources are cached
	DefaultScrapeCacheDir = ".cscrape/cache"
	// DefaultTargetsFile is loaded when present
	DefaultTargetsFile = "targets.toml"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 4
	// DefaultHistoryDatabase is the MySQL schema for run history
	DefaultHistoryDatabase = "cscrape_history"
)

// DefaultPathsToIgnore are the directories skipped when scanning for fixtures
var DefaultPathsToIgnore = []string{
	"build",
	"out",
	"node_modules",
}
