package execution

import (
	"context"
	"slices"
	"sync"
	"time"

	"cscrape/internal/domain"
)

// Progress receives job counts as jobs complete
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}

// WorkerPool manages a pool of workers for parallel job execution
type WorkerPool struct {
	workers   int
	runner    JobRunner
	scheduler Scheduler
	progress  Progress
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(workers int, runner JobRunner, scheduler Scheduler) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if scheduler == nil {
		scheduler = NewRoundRobinScheduler()
	}
	return &WorkerPool{
		workers:   workers,
		runner:    runner,
		scheduler: scheduler,
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Execute runs every job (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, jobs []domain.Job) ([]domain.JobResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, jobs, false)
}

// ExecuteWithOptions runs jobs with optional fail-fast (stop on first failure).
// Results come back in job order.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, jobs []domain.Job, failFast bool) ([]domain.JobResult, time.Duration, error) {
	if len(jobs) == 0 {
		return nil, 0, nil
	}
	start := time.Now()
	var results []domain.JobResult
	if failFast {
		results = wp.executeFailFast(ctx, jobs)
	} else {
		results = wp.executeAll(ctx, jobs)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	sortByJobs(results, jobs)
	return results, time.Since(start), ctx.Err()
}

// tally counts completed jobs for the progress reporter
type tally struct {
	mu        sync.Mutex
	progress  Progress
	completed int
	passed    int
	failed    int
}

func (t *tally) add(result domain.JobResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	if result.Success {
		t.passed++
	} else {
		t.failed++
	}
	if t.progress != nil {
		t.progress.Update(t.completed, t.passed, t.failed)
	}
}

// executeAll gives each worker its scheduled share of the jobs.
func (wp *WorkerPool) executeAll(ctx context.Context, jobs []domain.Job) []domain.JobResult {
	distribution := wp.scheduler.Schedule(jobs, wp.workers)
	results := make(chan domain.JobResult, len(jobs))
	counts := &tally{progress: wp.progress}

	var wg sync.WaitGroup
	for i, share := range distribution {
		wg.Add(1)
		go func(workerID int, share []domain.Job) {
			defer wg.Done()
			for _, job := range share {
				if ctx.Err() != nil {
					return
				}
				result := wp.runner.Run(ctx, job, workerID)
				results <- result
				counts.add(result)
			}
		}(i+1, share)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []domain.JobResult
	for result := range results {
		all = append(all, result)
	}
	return all
}

// executeFailFast runs jobs and stops after the first failure. Jobs still
// running when it happens are cancelled; those that pass anyway are kept,
// failures after the first are left out of the results.
func (wp *WorkerPool) executeFailFast(parent context.Context, jobs []domain.Job) []domain.JobResult {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	queue := make(chan domain.Job, 1)
	results := make(chan domain.JobResult, len(jobs))

	go func() {
		defer close(queue)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- job:
			}
		}
	}()

	var mu sync.Mutex
	var seenFailure bool
	counts := &tally{progress: wp.progress}

	var wg sync.WaitGroup
	for i := 1; i <= wp.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range queue {
				if ctx.Err() != nil {
					continue
				}
				result := wp.runner.Run(ctx, job, workerID)
				mu.Lock()
				if !result.Success {
					if seenFailure {
						mu.Unlock()
						continue
					}
					seenFailure = true
					cancel()
				}
				mu.Unlock()
				results <- result
				counts.add(result)
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []domain.JobResult
	for result := range results {
		all = append(all, result)
	}
	return all
}

func sortByJobs(results []domain.JobResult, jobs []domain.Job) {
	order := make(map[string]int, len(jobs))
	for i, job := range jobs {
		order[job.Name()] = i
	}
	slices.SortStableFunc(results, func(a, b domain.JobResult) int {
		return order[a.Job.Name()] - order[b.Job.Name()]
	})
}
