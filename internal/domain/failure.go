package domain

import "strconv"

// Failure is one record that did not match, or a job that could not be checked
// at all (Line is then 0 and Kind empty).
type Failure struct {
	Job       string `json:"job"`
	Simulator string `json:"simulator"`
	Fixture   string `json:"fixture"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Kind      string `json:"kind,omitempty"`
	Expr      string `json:"expr,omitempty"`
	Expected  string `json:"expected,omitempty"`
	Actual    string `json:"actual,omitempty"`
	Message   string `json:"message"`
	Resolved  bool   `json:"resolved,omitempty"` // toggled in the faills viewer
}

// Title is the short label used in lists
func (f Failure) Title() string {
	if f.Line == 0 {
		return f.Job
	}
	return f.Job + ":" + strconv.Itoa(f.Line)
}
