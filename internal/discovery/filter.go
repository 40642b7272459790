package discovery

import (
	"path/filepath"
	"strings"

	"cscrape/internal/domain"
)

// Filter filters fixtures and simulators by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// Match reports whether name matches pattern. Supports "test_0*", "*enum*"
// and plain substrings.
func (f *Filter) Match(name, pattern string) bool {
	if pattern == "" || name == pattern {
		return true
	}
	name = filepath.Base(name)

	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if strings.ContainsAny(pattern, "*?") {
		// Every literal part of the pattern must appear in order
		rest := name
		seen := false
		for _, part := range strings.Split(pattern, "*") {
			if part == "" || strings.Contains(part, "?") {
				continue
			}
			i := strings.Index(rest, part)
			if i < 0 {
				return false
			}
			rest = rest[i+len(part):]
			seen = true
		}
		return seen
	}

	return strings.Contains(name, pattern)
}

// matchAny is true when patterns is empty or one of them matches
func (f *Filter) matchAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if f.Match(name, p) {
			return true
		}
	}
	return false
}

// Fixtures keeps the fixtures matching any of patterns
func (f *Filter) Fixtures(fixtures []domain.Fixture, patterns []string) []domain.Fixture {
	var out []domain.Fixture
	for _, fx := range fixtures {
		if f.matchAny(fx.Name, patterns) {
			out = append(out, fx)
		}
	}
	return out
}

// Simulators keeps the simulators matching any of patterns
func (f *Filter) Simulators(sims []domain.Simulator, patterns []string) []domain.Simulator {
	var out []domain.Simulator
	for _, s := range sims {
		if f.matchAny(s.Name, patterns) {
			out = append(out, s)
		}
	}
	return out
}

// Failed keeps the jobs whose name is in failed
func (f *Filter) Failed(jobs []domain.Job, failed map[string]struct{}) []domain.Job {
	var out []domain.Job
	for _, j := range jobs {
		if _, ok := failed[j.Name()]; ok {
			out = append(out, j)
		}
	}
	return out
}
