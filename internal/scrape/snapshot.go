package scrape

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

// SnapshotSchema is bumped whenever the Snapshot layout changes.
const SnapshotSchema = 1

// Snapshot is everything a Scraper knows, in a form that can be stored and
// reloaded without the C sources.
type Snapshot struct {
	Schema    int                 `json:"schema"`
	Config    string              `json:"config"`
	Functions []Function          `json:"functions"`
	Typedefs  map[string]*Typedef `json:"typedefs"`
	Tags      map[string]*Typedef `json:"tags"`
	Variables []Variable          `json:"variables"`
	Enums     []Enum              `json:"enums"`
	Types     map[string]BaseType `json:"types"`
	MapVars   []MapSymbol         `json:"map_var_data"`
	MapFuncs  []MapSymbol         `json:"map_func_data"`
}

// Snapshot captures the current state.
func (s *Scraper) Snapshot() *Snapshot {
	return &Snapshot{
		Schema:    SnapshotSchema,
		Config:    s.target.Name,
		Functions: slices.Clone(s.functions),
		Typedefs:  maps.Clone(s.typedefs),
		Tags:      maps.Clone(s.tags),
		Variables: slices.Clone(s.variables),
		Enums:     slices.Clone(s.enums),
		Types:     maps.Clone(s.target.Types),
		MapVars:   slices.Clone(s.mapVars),
		MapFuncs:  slices.Clone(s.mapFuncs),
	}
}

// Restore replaces the current state with snap. The snapshot's target must be
// known to the registry; its type table replaces the registered one.
func (s *Scraper) Restore(snap *Snapshot) error {
	if snap.Schema != SnapshotSchema {
		return fmt.Errorf("snapshot schema %d, want %d", snap.Schema, SnapshotSchema)
	}
	t, err := s.registry.Lookup(snap.Config)
	if err != nil {
		return err
	}
	if len(snap.Types) > 0 {
		t.Types = maps.Clone(snap.Types)
	}
	s.target = t
	s.functions = slices.Clone(snap.Functions)
	s.typedefs = maps.Clone(snap.Typedefs)
	s.tags = maps.Clone(snap.Tags)
	s.variables = slices.Clone(snap.Variables)
	s.enums = slices.Clone(snap.Enums)
	s.mapVars = slices.Clone(snap.MapVars)
	s.mapFuncs = slices.Clone(snap.MapFuncs)
	if s.typedefs == nil {
		s.typedefs = make(map[string]*Typedef)
	}
	if s.tags == nil {
		s.tags = make(map[string]*Typedef)
	}
	s.reset()
	return nil
}

// DumpJSON writes the snapshot as JSON. Source lines are included, comments
// and all.
func (s *Scraper) DumpJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Snapshot())
}

// LoadJSON restores a snapshot written by DumpJSON.
func (s *Scraper) LoadJSON(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return s.Restore(&snap)
}
