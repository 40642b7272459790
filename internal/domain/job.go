package domain

import "time"

// Fixture is a directory of C sources that emit assertion records when run
type Fixture struct {
	Name    string   `json:"name"`
	Dir     string   `json:"dir"`
	Sources []string `json:"sources"` // *.c and *.h, sorted
}

// Simulator compiles and runs a fixture for one compiler/target combination
type Simulator struct {
	Name    string        `json:"name"`
	Dir     string        `json:"dir"`
	Command []string      `json:"command"`          // argv; fixture .c files are appended
	Target  string        `json:"target,omitempty"` // overrides CONFIG_NAME when set
	Timeout time.Duration `json:"timeout,omitempty"`
	Env     []string      `json:"env,omitempty"`
}

// Job is one fixture run on one simulator
type Job struct {
	Simulator Simulator
	Fixture   Fixture
}

// Name identifies the job in reports, e.g. "gcc_arm32/test_03_enums"
func (j Job) Name() string {
	return j.Simulator.Name + "/" + j.Fixture.Name
}

// Assertion is a TEST_* call site found in a fixture source
type Assertion struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Kind string `json:"kind"`
	Expr string `json:"expr"`
}
