package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"cscrape/internal/config"
	"cscrape/internal/discovery"
	"cscrape/internal/domain"
	"cscrape/internal/verify"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to the color-aware stdout
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{
		config: cfg,
		parser: parser,
		out:    color.Output,
	}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

const (
	tableTop    = "┌─────────────────────────────────┬─────────────────────────────┐"
	tableMiddle = "├─────────────────────────────────┼─────────────────────────────┤"
	tableBottom = "└─────────────────────────────────┴─────────────────────────────┘"
)

// PrintMetaStats displays the statistics of a run followed by its failures
func (f *Formatter) PrintMetaStats(output *domain.RunOutput) {
	meta := output.Meta

	fmt.Fprint(f.out, "\n")
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Harness Run Statistics                     ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Total Jobs", fmt.Sprint(meta.TotalJobs), white},
		{"Passed Jobs", fmt.Sprint(meta.PassedJobs), green},
		{"Failed Jobs", fmt.Sprint(meta.FailedJobs), red},
		{"Compiled Jobs", fmt.Sprint(meta.CompiledJobs), white},
		{"Checked Records", fmt.Sprint(meta.CheckedRecords), white},
		{"Failed Records", fmt.Sprint(meta.FailedRecords), red},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Workers", fmt.Sprint(meta.Workers), white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, tableTop)
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, tableMiddle)
		}
	}
	fmt.Fprintln(f.out, tableBottom)

	fmt.Fprintln(f.out)
	if meta.FailedJobs == 0 {
		green.Fprintln(f.out, "✓ All jobs passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d job(s) failed with %d record failure(s)\n", meta.FailedJobs, meta.FailedRecords)
	fmt.Fprintln(f.out)
	f.PrintFailureTree(output.Details)
}

// TreeNode is a simulator or fixture in the failure tree
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.Failure
}

func newTreeNode(name string) *TreeNode {
	return &TreeNode{Name: name, Children: make(map[string]*TreeNode)}
}

// PrintFailureTree prints failures grouped by simulator, then fixture
func (f *Formatter) PrintFailureTree(failures []domain.Failure) {
	if len(failures) == 0 {
		return
	}

	root := newTreeNode("")
	for _, failure := range failures {
		sim := root.Children[failure.Simulator]
		if sim == nil {
			sim = newTreeNode(failure.Simulator)
			root.Children[failure.Simulator] = sim
		}
		fx := sim.Children[failure.Fixture]
		if fx == nil {
			fx = newTreeNode(failure.Fixture)
			sim.Children[failure.Fixture] = fx
		}
		fx.Failures = append(fx.Failures, failure)
	}

	for _, simName := range sortedKeys(root.Children) {
		sim := root.Children[simName]
		cyan.Fprintln(f.out, sim.Name)
		fixtures := sortedKeys(sim.Children)
		for i, fxName := range fixtures {
			fx := sim.Children[fxName]
			lastFixture := i == len(fixtures)-1
			yellow.Fprintf(f.out, "%s%s\n", branch(lastFixture), fx.Name)
			for j, failure := range fx.Failures {
				red.Fprintf(f.out, "%s%s%s\n", indent(lastFixture), branch(j == len(fx.Failures)-1), failureLine(failure))
			}
		}
	}
}

func failureLine(failure domain.Failure) string {
	if failure.Line == 0 {
		return failure.Message
	}
	return fmt.Sprintf("%d: %s %s (expected %s, got %s)", failure.Line, failure.Kind, failure.Expr, failure.Expected, failure.Actual)
}

func branch(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func indent(lastParent bool) string {
	if lastParent {
		return "    "
	}
	return "│   "
}

func sortedKeys(m map[string]*TreeNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrintReport prints a checker report, one colored line per record
func (f *Formatter) PrintReport(name string, rep *verify.Report) {
	cyan.Fprintln(f.out, name)
	errs := 0
	for _, res := range rep.Results {
		if res.OK {
			fmt.Fprint(f.out, res.Report)
			green.Fprintln(f.out, "    OK")
			continue
		}
		errs++
		fmt.Fprint(f.out, res.Report)
		red.Fprintf(f.out, "    ERROR %d\n", errs)
	}
	if rep.Errors == 0 {
		green.Fprintf(f.out, "ERRORS=%d\n", rep.Errors)
	} else {
		red.Fprintf(f.out, "ERRORS=%d\n", rep.Errors)
	}
}

func (f *Formatter) relative(path string) string {
	if f.config == nil || f.config.ProjectPath == "" {
		return path
	}
	rel, err := filepath.Rel(f.config.ProjectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// CountAssertions returns the total number of assertions across the fixtures
func (f *Formatter) CountAssertions(fixtures []domain.Fixture) (int, error) {
	var total int
	for _, fx := range fixtures {
		assertions, err := f.parser.FixtureAssertions(fx)
		if err != nil {
			return 0, err
		}
		total += len(assertions)
	}
	return total, nil
}

// PrintFixtureList prints the fixtures, optionally with their assertions.
// Fixtures named in failed are marked with [F].
func (f *Formatter) PrintFixtureList(fixtures []domain.Fixture, showAssertions bool, failed map[string]struct{}) {
	green.Fprintf(f.out, "Found %d fixture(s):\n\n", len(fixtures))

	for i, fx := range fixtures {
		marker := ""
		if _, ok := failed[fx.Name]; ok {
			marker = " " + red.Sprint("[F]")
		}
		isLast := i == len(fixtures)-1
		cyan.Fprintf(f.out, "%s%s", branch(isLast), f.relative(fx.Dir))
		fmt.Fprintln(f.out, marker)

		if !showAssertions {
			continue
		}
		assertions, err := f.parser.FixtureAssertions(fx)
		if err != nil {
			red.Fprintf(f.out, "%s%s\n", indent(isLast), err)
			continue
		}
		if len(assertions) == 0 {
			fmt.Fprintf(f.out, "%s%s%s\n", indent(isLast), branch(true), red.Sprint("(no assertions found)"))
		}
		for j, a := range assertions {
			fmt.Fprintf(f.out, "%s%s%s\n", indent(isLast), branch(j == len(assertions)-1),
				yellow.Sprintf("%4d %s %s", a.Line, a.Kind, a.Expr))
		}
		if !isLast {
			fmt.Fprintln(f.out)
		}
	}
}

// PrintSimulatorList prints the simulators and how each one is invoked
func (f *Formatter) PrintSimulatorList(sims []domain.Simulator) {
	green.Fprintf(f.out, "Found %d simulator(s):\n\n", len(sims))
	for i, sim := range sims {
		var details []string
		if len(sim.Command) > 0 {
			argv := append([]string{f.relative(sim.Command[0])}, sim.Command[1:]...)
			details = append(details, strings.Join(argv, " "))
		}
		if sim.Target != "" {
			details = append(details, "target="+sim.Target)
		}
		if sim.Timeout > 0 {
			details = append(details, "timeout="+sim.Timeout.String())
		}
		cyan.Fprintf(f.out, "%s%s", branch(i == len(sims)-1), sim.Name)
		fmt.Fprintf(f.out, " (%s)\n", strings.Join(details, ", "))
	}
}
