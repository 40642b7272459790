package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobName(t *testing.T) {
	job := Job{
		Simulator: Simulator{Name: "gcc_arm32"},
		Fixture:   Fixture{Name: "test_03_enums"},
	}
	assert.Equal(t, "gcc_arm32/test_03_enums", job.Name())
}

func TestFailureTitle(t *testing.T) {
	tests := []struct {
		name     string
		failure  Failure
		expected string
	}{
		{"job error", Failure{Job: "sim/fix"}, "sim/fix"},
		{"record", Failure{Job: "sim/fix", Line: 52}, "sim/fix:52"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.failure.Title())
		})
	}
}
