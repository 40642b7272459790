package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cscrape/internal/domain"
)

const (
	// CompileAndRun is the script a simulator directory provides
	CompileAndRun = "compile_and_run"
	// ManifestFile describes a simulator without a script
	ManifestFile = "simulator.yaml"
)

// Scanner finds fixtures and simulators
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// subdirs lists the visible, non-skipped directories directly under root
func (s *Scanner) subdirs(root, what string) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%s path does not exist: %s", what, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s path is not a directory: %s", what, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || s.skipDirs[name] {
			continue
		}
		// cache_<fixture> directories live inside simulators
		if strings.HasPrefix(name, "cache_") {
			continue
		}
		dirs = append(dirs, filepath.Join(root, name))
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ScanFixtures returns every directory under root holding at least one .c file
func (s *Scanner) ScanFixtures(root string) ([]domain.Fixture, error) {
	dirs, err := s.subdirs(root, "fixtures")
	if err != nil {
		return nil, err
	}
	var fixtures []domain.Fixture
	for _, dir := range dirs {
		sources, err := Sources(dir)
		if err != nil {
			return nil, err
		}
		if !hasCFile(sources) {
			continue
		}
		fixtures = append(fixtures, domain.Fixture{
			Name:    filepath.Base(dir),
			Dir:     dir,
			Sources: sources,
		})
	}
	return fixtures, nil
}

// Sources lists the .c and .h files of a directory, sorted
func Sources(dir string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.c", "*.h"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

func hasCFile(paths []string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, ".c") {
			return true
		}
	}
	return false
}

// ScanSimulators returns every directory under root with a manifest or a
// compile_and_run script. The manifest wins when both exist.
func (s *Scanner) ScanSimulators(root string) ([]domain.Simulator, error) {
	dirs, err := s.subdirs(root, "simulators")
	if err != nil {
		return nil, err
	}
	var sims []domain.Simulator
	for _, dir := range dirs {
		sim, ok, err := LoadSimulator(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			sims = append(sims, sim)
		}
	}
	return sims, nil
}

// manifest is the content of simulator.yaml
type manifest struct {
	Command []string          `yaml:"command"`
	Target  string            `yaml:"target"`
	Timeout string            `yaml:"timeout"`
	Env     map[string]string `yaml:"env"`
}

// LoadSimulator reads one simulator directory. ok is false when the directory
// is not a simulator.
func LoadSimulator(dir string) (sim domain.Simulator, ok bool, err error) {
	dir, err = filepath.Abs(dir)
	if err != nil {
		return sim, false, err
	}
	sim = domain.Simulator{Name: filepath.Base(dir), Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case err == nil:
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return sim, false, fmt.Errorf("parse %s: %w", filepath.Join(dir, ManifestFile), err)
		}
		if len(m.Command) == 0 {
			return sim, false, fmt.Errorf("%s: command is required", filepath.Join(dir, ManifestFile))
		}
		sim.Command = m.Command
		// ./script and sub/script are relative to the simulator
		if strings.Contains(m.Command[0], "/") && !filepath.IsAbs(m.Command[0]) {
			sim.Command[0] = filepath.Join(dir, m.Command[0])
		}
		sim.Target = m.Target
		if m.Timeout != "" {
			d, err := time.ParseDuration(m.Timeout)
			if err != nil {
				return sim, false, fmt.Errorf("%s: bad timeout: %w", filepath.Join(dir, ManifestFile), err)
			}
			sim.Timeout = d
		}
		keys := make([]string, 0, len(m.Env))
		for k := range m.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sim.Env = append(sim.Env, k+"="+m.Env[k])
		}
		return sim, true, nil
	case !os.IsNotExist(err):
		return sim, false, fmt.Errorf("read manifest: %w", err)
	}

	script := filepath.Join(dir, CompileAndRun)
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return sim, false, nil
	}
	sim.Command = []string{script}
	return sim, true, nil
}

// Jobs pairs every simulator with every fixture, simulator by simulator
func Jobs(sims []domain.Simulator, fixtures []domain.Fixture) []domain.Job {
	jobs := make([]domain.Job, 0, len(sims)*len(fixtures))
	for _, sim := range sims {
		for _, fx := range fixtures {
			jobs = append(jobs, domain.Job{Simulator: sim, Fixture: fx})
		}
	}
	return jobs
}
