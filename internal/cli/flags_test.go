package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToConfigFlags(t *testing.T) {
	f := &Flags{
		ProjectPath: "/work",
		Processors:  8,
		Fixtures:    []string{"test_0*"},
		Simulators:  []string{"gcc*"},
		FailFast:    true,
		Sources:     []string{"test.c"},
		Target:      "lp64",
		Expressions: []string{"obj.type_size('int')"},
		Limit:       5,
	}

	got := f.ToConfigFlags()
	assert.Equal(t, "/work", got.ProjectPath)
	assert.Equal(t, 8, got.Processors)
	assert.Equal(t, []string{"test_0*"}, got.Fixtures)
	assert.Equal(t, []string{"gcc*"}, got.Simulators)
	assert.True(t, got.FailFast)
	assert.Equal(t, []string{"test.c"}, got.Sources)
	assert.Equal(t, "lp64", got.Target)
	assert.Equal(t, []string{"obj.type_size('int')"}, got.Expressions)
	assert.Equal(t, 5, got.Limit)
}
