package cli

import "cscrape/internal/config"

// Flags holds command-line flags
type Flags struct {
	ProjectPath    string
	ConfigFile     string
	DebugLevel     int
	LogFile        string
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
	ListSimulators bool
	History        bool
	Sources        []string
	Snapshot       string
	Target         string
	MapFile        string
	Expressions    []string
	Format         string
	Output         string
	ClearCache     bool
	Limit          int
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ProjectPath:    f.ProjectPath,
		ConfigFile:     f.ConfigFile,
		Processors:     f.Processors,
		FixturesDir:    f.FixturesDir,
		SimulatorsDir:  f.SimulatorsDir,
		Fixtures:       f.Fixtures,
		Simulators:     f.Simulators,
		AlwaysCompile:  f.AlwaysCompile,
		FailFast:       f.FailFast,
		OnlyFailed:     f.OnlyFailed,
		OpenFaills:     f.OpenFaills,
		ShowAssertions: f.ShowAssertions,
		History:        f.History,
		DebugLevel:     f.DebugLevel,
		LogFile:        f.LogFile,
		Sources:        f.Sources,
		Snapshot:       f.Snapshot,
		Target:         f.Target,
		MapFile:        f.MapFile,
		Expressions:    f.Expressions,
		Format:         f.Format,
		Output:         f.Output,
		ListSimulators: f.ListSimulators,
		ClearCache:     f.ClearCache,
		Limit:          f.Limit,
	}
}
