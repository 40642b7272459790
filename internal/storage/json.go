package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cscrape/internal/domain"
)

// BuildOutput summarises job results into what gets stored.
func BuildOutput(results []domain.JobResult, duration time.Duration, workers int) *domain.RunOutput {
	meta := domain.RunMeta{
		TotalJobs:       len(results),
		Duration:        duration.String(),
		DurationSeconds: duration.Seconds(),
		Workers:         workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	details := make([]domain.Failure, 0)
	for _, r := range results {
		if r.Success {
			meta.PassedJobs++
		} else {
			meta.FailedJobs++
		}
		if r.Compiled {
			meta.CompiledJobs++
		}
		meta.CheckedRecords += r.Checked
		for _, f := range r.Failures {
			if f.Line > 0 {
				meta.FailedRecords++
			}
		}
		details = append(details, r.Failures...)
	}
	return &domain.RunOutput{Meta: meta, Details: details}
}

// Save writes job results and their failures to the configured JSON output file.
func (s *JSONStorage) Save(results []domain.JobResult, duration time.Duration, workers int) (*domain.RunOutput, error) {
	output := BuildOutput(results, duration, workers)
	if err := s.SaveOutput(output); err != nil {
		return nil, err
	}
	return output, nil
}

// Load reads the last run from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.RunOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.RunOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SaveOutput writes the full output to the configured JSON file.
func (s *JSONStorage) SaveOutput(output *domain.RunOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
