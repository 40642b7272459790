package domain

import "time"

// JobResult is the outcome of compiling, running and checking one job
type JobResult struct {
	Job        Job
	Success    bool          // ran to completion and every record matched
	Compiled   bool          // false when the cached results were reused
	CacheDir   string        // where results.txt and results.map live
	ConfigName string        // target reported by the fixture
	Output     string        // combined output of compile_and_run
	Checked    int           // number of records checked
	Failures   []Failure     // mismatching records, or one entry for a job error
	Error      error         // job-level error (command, results file, scrape)
	Duration   time.Duration // time taken by the whole job
}

// RunMeta contains metadata about a harness run
type RunMeta struct {
	TotalJobs       int     `json:"total_jobs"`
	FailedJobs      int     `json:"failed_jobs"`
	PassedJobs      int     `json:"passed_jobs"`
	CompiledJobs    int     `json:"compiled_jobs"`
	CheckedRecords  int     `json:"checked_records"`
	FailedRecords   int     `json:"failed_records"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// RunOutput is the complete output structure stored after a run
type RunOutput struct {
	Meta    RunMeta   `json:"meta"`
	Details []Failure `json:"details"`
}
