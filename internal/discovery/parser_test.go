package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cscrape/internal/domain"
)

const fixtureSource = `#define TEST_INT(PY_EXPR, C_VALUE)     print_int(__LINE__); print_str(":INT:" PY_EXPR);
#define TEST_EXP(PY_EXPR, PY_EXP_STR)  print_int(__LINE__); print_str(":EXP:" PY_EXPR);

void main(void)
{
    TEST_INT("obj.enum('MY_ENUM')",      MY_ENUM);
    TEST_EXP("obj.enum('UNKNOWN')", "Exception(\"Missing enum 'enum:*:*:*:UNKNOWN'\",)");
    TEST_HEX("obj.var('flags')['addr']", (unsigned)&flags); TEST_STR("obj.var('flags')['type']", "signed int");
}
`

func TestParser_FindAssertions(t *testing.T) {
	parser := NewParser()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.c")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	found, err := parser.FindAssertions(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Assertion{
		{File: path, Line: 6, Kind: "INT", Expr: "obj.enum('MY_ENUM')"},
		{File: path, Line: 7, Kind: "EXP", Expr: "obj.enum('UNKNOWN')"},
		{File: path, Line: 8, Kind: "HEX", Expr: "obj.var('flags')['addr']"},
		{File: path, Line: 8, Kind: "STR", Expr: "obj.var('flags')['type']"},
	}, found)

	t.Run("returns error for non-existent file", func(t *testing.T) {
		_, err := parser.FindAssertions("/non/existent/file.c")
		if err == nil {
			t.Error("expected error for non-existent file")
		}
	})
}

func TestParser_FixtureAssertions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.c": `TEST_INT("len(\"ab\")", 2);`,
		"a.h": `TEST_INT("1", 1);`,
	})
	sources, err := Sources(dir)
	require.NoError(t, err)

	found, err := NewParser().FixtureAssertions(domain.Fixture{Name: "fx", Dir: dir, Sources: sources})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, `len("ab")`, found[0].Expr)
}
