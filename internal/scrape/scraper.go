// Package scrape extracts declarations from C sources and answers scoped
// queries about them: type sizes, enumeration constants, variables and
// functions. Layout is computed for a configurable target.
//
// A Scraper is not safe for concurrent use.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cscrape/internal/readelf"
)

// Scraper accumulates the declarations of every parsed file.
type Scraper struct {
	target     *Target
	registry   *Registry
	logger     *slog.Logger
	debugLevel int

	functions []Function
	typedefs  map[string]*Typedef
	tags      map[string]*Typedef // "struct x" and "union y"
	variables []Variable
	enums     []Enum
	mapVars   []MapSymbol
	mapFuncs  []MapSymbol

	memo map[string]any
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger used for tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithDebugLevel enables tracing: 10 logs every declaration, 20 also logs
// each parsed file.
func WithDebugLevel(level int) Option {
	return func(s *Scraper) { s.debugLevel = level }
}

// WithRegistry sets the targets Config can select from.
func WithRegistry(r *Registry) Option {
	return func(s *Scraper) { s.registry = r }
}

// WithTarget sets the initial target.
func WithTarget(t *Target) Option {
	return func(s *Scraper) { s.target = t }
}

// New returns an empty Scraper configured for arm32 unless WithTarget says
// otherwise.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		typedefs: make(map[string]*Typedef),
		tags:     make(map[string]*Typedef),
		memo:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.target == nil {
		s.target = Arm32()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Config selects the named target. Call it before parsing: layouts already
// computed are not redone.
func (s *Scraper) Config(name string) error {
	t, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}
	s.target = t
	s.reset()
	return nil
}

// Target returns the active target.
func (s *Scraper) Target() *Target { return s.target }

// ParseFile parses the C source file at path.
func (s *Scraper) ParseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return s.ParseString(string(data), path)
}

// ParseString parses C source text. filename is recorded as the declaration
// site of everything found in it.
func (s *Scraper) ParseString(src, filename string) error {
	defer s.reset()
	toks, err := NewLexer(Clean(src)).Tokenize()
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	p := &fileParser{
		s:        s,
		filename: filename,
		lines:    sourceLines(src),
		toks:     toks,
	}
	s.trace(20, "parsing", "file", filename, "tokens", len(toks))
	if err := p.parse(); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

// LoadReadelf merges the symbol tables of a readelf dump so that Var and Func
// report addresses.
func (s *Scraper) LoadReadelf(path string) error {
	table, err := readelf.ParseFile(path)
	if err != nil {
		return err
	}
	s.AddMapData(toMapSymbols(table.Objects), toMapSymbols(table.Functions))
	return nil
}

func toMapSymbols(syms []readelf.Symbol) []MapSymbol {
	out := make([]MapSymbol, 0, len(syms))
	for _, sym := range syms {
		out = append(out, MapSymbol{Name: sym.Name, Addr: sym.Addr, Size: sym.Size, File: sym.File})
	}
	return out
}

// AddMapData appends linker symbols for variables and functions.
func (s *Scraper) AddMapData(vars, funcs []MapSymbol) {
	s.mapVars = append(s.mapVars, vars...)
	s.mapFuncs = append(s.mapFuncs, funcs...)
	s.reset()
}

// Functions returns the recorded function definitions.
func (s *Scraper) Functions() []Function { return s.functions }

// Variables returns the recorded variables.
func (s *Scraper) Variables() []Variable { return s.variables }

// Enums returns the recorded enumerations in declaration order.
func (s *Scraper) Enums() []Enum { return s.enums }

// Typedef returns the typedef or tagged aggregate ("struct x") called name.
func (s *Scraper) Typedef(name string) (*Typedef, bool) {
	if td, ok := s.typedefs[name]; ok {
		return td, true
	}
	td, ok := s.tags[name]
	return td, ok
}

// reset drops memoised query results.
func (s *Scraper) reset() {
	clear(s.memo)
}

func (s *Scraper) trace(level int, msg string, args ...any) {
	if s.debugLevel >= level {
		s.logger.Log(context.Background(), slog.LevelDebug, msg, args...)
	}
}
