package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cscrape/internal/domain"
)

func TestFilter_FixturesAndSimulators(t *testing.T) {
	filter := NewFilter()
	fixtures := []domain.Fixture{{Name: "test_01_sizeof"}, {Name: "test_03_enums"}, {Name: "test_04_variables"}}
	sims := []domain.Simulator{{Name: "gcc_arm32"}, {Name: "gcc_lp64"}}

	assert.Len(t, filter.Fixtures(fixtures, nil), 3)
	assert.Equal(t, []domain.Fixture{{Name: "test_01_sizeof"}, {Name: "test_04_variables"}},
		filter.Fixtures(fixtures, []string{"test_01_sizeof", "*variables"}))
	assert.Equal(t, []domain.Simulator{{Name: "gcc_lp64"}}, filter.Simulators(sims, []string{"*lp64"}))
}

func TestFilter_Failed(t *testing.T) {
	filter := NewFilter()
	jobs := Jobs(
		[]domain.Simulator{{Name: "a"}, {Name: "b"}},
		[]domain.Fixture{{Name: "x"}, {Name: "y"}},
	)
	assert.Len(t, jobs, 4)
	assert.Equal(t, "a/x", jobs[0].Name())
	assert.Equal(t, "b/y", jobs[3].Name())

	failed := filter.Failed(jobs, map[string]struct{}{"a/y": {}, "b/x": {}})
	assert.Equal(t, []string{"a/y", "b/x"}, []string{failed[0].Name(), failed[1].Name()})
}

func TestFilter_Match(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"test_03_enums", "", true},
		{"test_03_enums", "test_03_enums", true},
		{"test_03_enums", "test_0*", true},
		{"test_03_enums", "*enum*", true},
		{"test_03_enums", "enums", true},
		{"test_03_enums", "test_1*", false},
		{"test_03_enums", "*sizeof*", false},
		{"test_01_sizeof_user_type", "*sizeof*type", true},
		{"gcc_arm32", "clang", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Match(tt.name, tt.pattern))
		})
	}
}
