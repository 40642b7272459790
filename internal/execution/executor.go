package execution

import (
	"context"
	"time"

	"cscrape/internal/domain"
)

// Executor executes jobs and returns results
type Executor interface {
	Execute(ctx context.Context, jobs []domain.Job) ([]domain.JobResult, time.Duration, error)
}

// JobRunner runs a single job
type JobRunner interface {
	Run(ctx context.Context, job domain.Job, workerID int) domain.JobResult
}
