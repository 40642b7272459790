package parser

import (
	"cscrape/internal/domain"
	"cscrape/internal/verify"
)

// FailureParser turns job outcomes into stored failures
type FailureParser struct{}

// NewFailureParser creates a new FailureParser
func NewFailureParser() *FailureParser {
	return &FailureParser{}
}

// ParseReport returns one failure per mismatching record. file is the source
// the line numbers refer to.
func (p *FailureParser) ParseReport(job domain.Job, file string, rep *verify.Report) []domain.Failure {
	var failures []domain.Failure
	for _, res := range rep.Failed() {
		failures = append(failures, domain.Failure{
			Job:       job.Name(),
			Simulator: job.Simulator.Name,
			Fixture:   job.Fixture.Name,
			File:      file,
			Line:      res.Record.Line,
			Kind:      string(res.Record.Kind),
			Expr:      res.Record.Expr,
			Expected:  res.Record.Value,
			Actual:    res.Actual,
			Message:   res.Report,
		})
	}
	return failures
}

// ParseError returns the single failure recorded for a job that could not be
// checked.
func (p *FailureParser) ParseError(job domain.Job, err error) domain.Failure {
	return domain.Failure{
		Job:       job.Name(),
		Simulator: job.Simulator.Name,
		Fixture:   job.Fixture.Name,
		File:      job.Fixture.Dir,
		Message:   err.Error(),
	}
}

// FailedJobs returns the names of the jobs with unresolved failures
func (p *FailureParser) FailedJobs(output *domain.RunOutput) map[string]struct{} {
	failed := make(map[string]struct{})
	if output == nil {
		return failed
	}
	for _, f := range output.Details {
		if !f.Resolved {
			failed[f.Job] = struct{}{}
		}
	}
	return failed
}
