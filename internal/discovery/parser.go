package discovery

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"cscrape/internal/domain"
)

// Parser finds assertion sites in fixture sources
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// assertionPattern matches TEST_INT("expr", ...) and friends; the macro
// definitions themselves have no string literal and are skipped.
var assertionPattern = regexp.MustCompile(`\bTEST_(INT|HEX|EXP|STR)\s*\(\s*"((?:[^"\\]|\\.)*)"`)

// FindAssertions lists the TEST_* calls of one source file in line order
func (p *Parser) FindAssertions(filePath string) ([]domain.Assertion, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	defer f.Close()

	var out []domain.Assertion
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		for _, m := range assertionPattern.FindAllStringSubmatch(sc.Text(), -1) {
			out = append(out, domain.Assertion{
				File: filePath,
				Line: line,
				Kind: m[1],
				Expr: unescapeC(m[2]),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	return out, nil
}

// FixtureAssertions lists the assertions of every .c file of a fixture
func (p *Parser) FixtureAssertions(fx domain.Fixture) ([]domain.Assertion, error) {
	var out []domain.Assertion
	for _, src := range fx.Sources {
		if !strings.HasSuffix(src, ".c") {
			continue
		}
		found, err := p.FindAssertions(src)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// unescapeC undoes the simple escapes used inside the expression strings
func unescapeC(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
