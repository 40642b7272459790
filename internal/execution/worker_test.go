package execution

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cscrape/internal/domain"
)

type fakeRunner struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, job domain.Job, workerID int) domain.JobResult {
	f.calls.Add(1)
	return domain.JobResult{Job: job, Success: !f.fail[job.Fixture.Name]}
}

// handoffRunner fails test_00 once test_01 is running. test_01 passes after
// the pool has cancelled its context.
type handoffRunner struct {
	started chan struct{}
	calls   atomic.Int32
}

func (r *handoffRunner) Run(ctx context.Context, job domain.Job, workerID int) domain.JobResult {
	r.calls.Add(1)
	switch job.Fixture.Name {
	case "test_00":
		<-r.started
		return domain.JobResult{Job: job}
	case "test_01":
		close(r.started)
		<-ctx.Done()
	}
	return domain.JobResult{Job: job, Success: true}
}

type recordingProgress struct {
	mu       sync.Mutex
	updates  int
	last     [3]int
	finished bool
}

func (p *recordingProgress) Update(completed, passed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++
	p.last = [3]int{completed, passed, failed}
}

func (p *recordingProgress) Finish() {
	p.finished = true
}

func makeJobs(n int) []domain.Job {
	jobs := make([]domain.Job, n)
	for i := range jobs {
		jobs[i] = domain.Job{
			Simulator: domain.Simulator{Name: "sim"},
			Fixture:   domain.Fixture{Name: fmt.Sprintf("test_%02d", i)},
		}
	}
	return jobs
}

func TestWorkerPool_Execute(t *testing.T) {
	jobs := makeJobs(10)
	runner := &fakeRunner{fail: map[string]bool{"test_03": true}}
	progress := &recordingProgress{}
	pool := NewWorkerPool(3, runner, NewRoundRobinScheduler())
	pool.SetProgress(progress)

	results, _, err := pool.Execute(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, res := range results {
		assert.Equal(t, jobs[i].Name(), res.Job.Name())
	}
	assert.False(t, results[3].Success)
	assert.Equal(t, int32(10), runner.calls.Load())

	assert.Equal(t, 10, progress.updates)
	assert.Equal(t, [3]int{10, 9, 1}, progress.last)
	assert.True(t, progress.finished)
}

func TestWorkerPool_ExecuteEmpty(t *testing.T) {
	pool := NewWorkerPool(2, &fakeRunner{}, nil)
	results, d, err := pool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, d)
}

func TestWorkerPool_FailFast(t *testing.T) {
	jobs := makeJobs(50)
	runner := &fakeRunner{fail: map[string]bool{"test_00": true}}
	pool := NewWorkerPool(1, runner, nil)

	results, _, err := pool.ExecuteWithOptions(context.Background(), jobs, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestWorkerPool_FailFastKeepsRunningPasses(t *testing.T) {
	jobs := makeJobs(10)
	runner := &handoffRunner{started: make(chan struct{})}
	pool := NewWorkerPool(2, runner, nil)

	results, _, err := pool.ExecuteWithOptions(context.Background(), jobs, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "test_00", results[0].Job.Fixture.Name)
	assert.False(t, results[0].Success)
	assert.Equal(t, "test_01", results[1].Job.Fixture.Name)
	assert.True(t, results[1].Success)
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestWorkerPool_FailFastAllPass(t *testing.T) {
	jobs := makeJobs(8)
	pool := NewWorkerPool(4, &fakeRunner{}, nil)

	results, _, err := pool.ExecuteWithOptions(context.Background(), jobs, true)
	require.NoError(t, err)
	assert.Len(t, results, 8)
}

func TestWorkerPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewWorkerPool(2, &fakeRunner{}, nil)

	results, _, err := pool.Execute(ctx, makeJobs(4))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	pool := NewWorkerPool(0, &fakeRunner{}, nil)
	assert.Equal(t, 1, pool.Workers())
	assert.NotNil(t, pool.scheduler)
}
