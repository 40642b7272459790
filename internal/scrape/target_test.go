package scrape

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollate(t *testing.T) {
	arm := Arm32()
	unsignedChar := Arm32()
	unsignedChar.CharSign = "unsigned"

	tests := []struct {
		name     string
		target   *Target
		words    []string
		expected string
	}{
		{"int", arm, []string{"int"}, "signed int"},
		{"short int", arm, []string{"short", "int"}, "signed short"},
		{"int short reversed", arm, []string{"int", "short"}, "signed short"},
		{"unsigned long long int", arm, []string{"unsigned", "long", "long", "int"}, "unsigned long long"},
		{"long double", arm, []string{"long", "double"}, "double long"},
		{"qualifiers dropped", arm, []string{"const", "volatile", "unsigned"}, "unsigned int"},
		{"plain char signed", arm, []string{"char"}, "signed char"},
		{"plain char unsigned target", unsignedChar, []string{"char"}, "unsigned char"},
		{"explicit signed char", unsignedChar, []string{"signed", "char"}, "signed char"},
		{"gnu signed", arm, []string{"__signed__", "short"}, "signed short"},
		{"struct keeps order", arm, []string{"struct", "point"}, "struct point"},
		{"unknown passes through", arm, []string{"my_type"}, "my_type"},
		{"only qualifiers", arm, []string{"const"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.target.Collate(tt.words))
		})
	}
}

func TestBuiltinTypeSizes(t *testing.T) {
	s := New()

	tests := []struct {
		name     string
		expected int
	}{
		{"bool", 8},
		{"unsigned char", 8},
		{"char", 8},
		{"short int", 16},
		{"unsigned int", 32},
		{"unsigned long int", 32},
		{"unsigned long long int", 64},
		{"float", 32},
		{"double", 64},
		{"long double", 64},
		{"unsigned int*", 32},
		{"char *", 32},
		{"uint16_t", 16},
		{"enum colour", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := s.TypeSize(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, size)
		})
	}
}

func TestTypeSizeUnknown(t *testing.T) {
	s := New()
	_, err := s.TypeSize("not_a_type")
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Unknown type not_a_type", se.Error())
	assert.Equal(t, "SyntaxError", se.ExceptionClass())
}

func TestLP64(t *testing.T) {
	s := New()
	require.NoError(t, s.Config("lp64"))

	size, err := s.TypeSize("long")
	require.NoError(t, err)
	assert.Equal(t, 64, size)

	size, err = s.TypeSize("void *")
	require.NoError(t, err)
	assert.Equal(t, 64, size)

	size, err = s.TypeSize("long double")
	require.NoError(t, err)
	assert.Equal(t, 128, size)

	require.NoError(t, s.ParseString("typedef struct { char c; } one_char;\n", "lp64.c"))
	size, err = s.TypeSize("one_char")
	require.NoError(t, err)
	assert.Equal(t, 8, size)
}

func TestConfigUnknown(t *testing.T) {
	s := New()
	err := s.Config("pdp11")
	require.Error(t, err)
	assert.Equal(t, "Unknown configuration name pdp11", err.Error())
	assert.True(t, errors.Is(err, ErrUnknownTarget))
	assert.Equal(t, "arm32", s.Target().Name)
}

func TestRegistryLookupReturnsCopy(t *testing.T) {
	r := NewRegistry()
	a, err := r.Lookup("arm32")
	require.NoError(t, err)
	a.Types["signed int"] = BaseType{BitSize: 16, Alignment: 16, Signed: true}

	b, err := r.Lookup("arm32")
	require.NoError(t, err)
	assert.Equal(t, 32, b.Types["signed int"].BitSize)
	assert.Equal(t, []string{"arm32", "lp64"}, r.Names())
}

func TestRegistryLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.toml")
	content := `
[targets.cortex_m0]
base = "arm32"
char_sign = "unsigned"

[targets.cortex_m0.types."long double"]
bit_size = 64
alignment = 32
signed = true

[targets.wide]
base = "lp64"
pointer_size = 32
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))
	assert.Equal(t, []string{"arm32", "cortex_m0", "lp64", "wide"}, r.Names())

	m0, err := r.Lookup("cortex_m0")
	require.NoError(t, err)
	assert.Equal(t, "unsigned", m0.CharSign)
	assert.Equal(t, 32, m0.PointerSize)
	assert.Equal(t, BaseType{BitSize: 64, Alignment: 32, Signed: true}, m0.Types["double long"])
	assert.Equal(t, "unsigned char", m0.Collate([]string{"char"}))

	wide, err := r.Lookup("wide")
	require.NoError(t, err)
	assert.Equal(t, 32, wide.PointerSize)
	assert.Equal(t, 64, wide.Types["signed long"].BitSize)
	assert.Equal(t, 8, wide.StructAlignment)

	s := New(WithRegistry(r))
	require.NoError(t, s.Config("cortex_m0"))
	size, err := s.TypeSize("long double")
	require.NoError(t, err)
	assert.Equal(t, 64, size)
}

func TestRegistryLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"no targets", "title = \"x\"\n", "missing [targets]"},
		{"bad char sign", "[targets.x]\nchar_sign = \"maybe\"\n", "char_sign must be signed or unsigned"},
		{"unknown base", "[targets.x]\nbase = \"vax\"\n", "Unknown configuration name vax"},
		{"bad type", "[targets.x.types.int]\nbit_size = 0\nalignment = 8\n", "needs positive bit_size"},
		{"zero pointer", "[targets.x]\npointer_size = 0\n", "pointer_size and struct_alignment must be positive"},
		{"bad toml", "[targets.x\n", "failed to parse TOML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "targets.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			err := NewRegistry().LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
