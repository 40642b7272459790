package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xyproto/env/v2"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath   string
	FixturesDir   string
	SimulatorsDir string
	TargetsFile   string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string
	ScrapeCacheDir string
	LogFile        string
	DebugLevel     int

	// Execution settings
	Processors    int
	AlwaysCompile bool

	// Paths to ignore when scanning
	PathsToIgnore []string

	Database Database

	// Command flags
	Flags Flags
}

// Database holds the MySQL settings used for run history
type Database struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Flags holds command-line flags
type Flags struct {
	ProjectPath    string
	ConfigFile     string
	Processors     int
	FixturesDir    string
	SimulatorsDir  string
	Fixtures       []string
	Simulators     []string
	AlwaysCompile  bool
	FailFast       bool
	OnlyFailed     bool
	OpenFaills     bool
	ShowAssertions bool
	History        bool
	DebugLevel     int
	LogFile        string

	// check, query and dump
	Sources     []string
	Snapshot    string
	Target      string
	MapFile     string
	Expressions []string
	Format      string
	Output      string

	ListSimulators bool
	ClearCache     bool
	Limit          int
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		FixturesDir:    DefaultFixturesDir,
		SimulatorsDir:  DefaultSimulatorsDir,
		TargetsFile:    DefaultTargetsFile,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		ScrapeCacheDir: DefaultScrapeCacheDir,
		Processors:     DefaultProcessors,
		Database: Database{
			Host: "127.0.0.1",
			Port: "3306",
			User: "root",
			Name: DefaultHistoryDatabase,
		},
		Flags: Flags{Processors: DefaultProcessors},
	}
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the configuration. Later sources win: defaults, .cscrape.yaml,
// .env and the environment, then flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}

	if err := cfg.readFile(flags.ConfigFile); err != nil {
		return nil, err
	}

	// .env is optional
	if err := godotenv.Load(filepath.Join(cfg.ProjectPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	cfg.Apply(flags)
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".cscrape")
		v.SetConfigType("yaml")
		v.AddConfigPath(c.ProjectPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setString("fixtures_dir", &c.FixturesDir)
	setString("simulators_dir", &c.SimulatorsDir)
	setString("targets_file", &c.TargetsFile)
	setString("output.dir", &c.OutputJSONDir)
	setString("output.file", &c.OutputJSONFile)
	setString("cache_dir", &c.ScrapeCacheDir)
	setString("log_file", &c.LogFile)
	setString("database.host", &c.Database.Host)
	setString("database.port", &c.Database.Port)
	setString("database.user", &c.Database.User)
	setString("database.password", &c.Database.Password)
	setString("database.name", &c.Database.Name)
	if v.IsSet("processors") {
		c.Processors = v.GetInt("processors")
	}
	if v.IsSet("debug_level") {
		c.DebugLevel = v.GetInt("debug_level")
	}
	if v.IsSet("always_compile") {
		c.AlwaysCompile = v.GetBool("always_compile")
	}
	if v.IsSet("database.enabled") {
		c.Database.Enabled = v.GetBool("database.enabled")
	}
	if v.IsSet("ignore") {
		c.PathsToIgnore = v.GetStringSlice("ignore")
	}
	return nil
}

// applyEnv reads CSCRAPE_* overrides and the DB_* connection settings.
func (c *Config) applyEnv() {
	c.FixturesDir = env.Str("CSCRAPE_FIXTURES_DIR", c.FixturesDir)
	c.SimulatorsDir = env.Str("CSCRAPE_SIMULATORS_DIR", c.SimulatorsDir)
	c.TargetsFile = env.Str("CSCRAPE_TARGETS_FILE", c.TargetsFile)
	c.ScrapeCacheDir = env.Str("CSCRAPE_CACHE_DIR", c.ScrapeCacheDir)
	c.LogFile = env.Str("CSCRAPE_LOG_FILE", c.LogFile)
	c.Processors = env.Int("CSCRAPE_PROCESSORS", c.Processors)
	c.DebugLevel = env.Int("CSCRAPE_DEBUG_LEVEL", c.DebugLevel)
	if env.Bool("CSCRAPE_ALWAYS_COMPILE") {
		c.AlwaysCompile = true
	}

	c.Database.Host = env.Str("DB_HOST", c.Database.Host)
	c.Database.Port = env.Str("DB_PORT", c.Database.Port)
	c.Database.User = env.Str("DB_USERNAME", c.Database.User)
	c.Database.Password = env.Str("DB_PASSWORD", c.Database.Password)
	c.Database.Name = env.Str("DB_DATABASE", c.Database.Name)
	if env.Bool("CSCRAPE_HISTORY") {
		c.Database.Enabled = true
	}
}

// Apply stores flags and lets the ones that were given override the config.
func (c *Config) Apply(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.FixturesDir != "" {
		c.FixturesDir = flags.FixturesDir
	}
	if flags.SimulatorsDir != "" {
		c.SimulatorsDir = flags.SimulatorsDir
	}
	if flags.AlwaysCompile {
		c.AlwaysCompile = true
	}
	if flags.History {
		c.Database.Enabled = true
	}
	if flags.DebugLevel > 0 {
		c.DebugLevel = flags.DebugLevel
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectPath, p)
}

// GetFixturesPath returns the directory scanned for fixtures
func (c *Config) GetFixturesPath() string {
	return c.resolve(c.FixturesDir)
}

// GetSimulatorsPath returns the directory scanned for simulators
func (c *Config) GetSimulatorsPath() string {
	return c.resolve(c.SimulatorsDir)
}

// GetTargetsPath returns the TOML file with extra targets, or "" when unset
func (c *Config) GetTargetsPath() string {
	return c.resolve(c.TargetsFile)
}

// GetScrapeCachePath returns the directory of the scrape cache
func (c *Config) GetScrapeCachePath() string {
	return c.resolve(c.ScrapeCacheDir)
}

// GetLogPath returns the JSON log file, or "" when logging to a file is off
func (c *Config) GetLogPath() string {
	return c.resolve(c.LogFile)
}

// GetOutputPath returns the full path to the output JSON file. It is made
// absolute so that run and faills agree regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := c.resolve(filepath.Join(c.OutputJSONDir, c.OutputJSONFile))
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
