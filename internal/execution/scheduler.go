package execution

import "cscrape/internal/domain"

// Scheduler distributes jobs across workers
type Scheduler interface {
	Schedule(jobs []domain.Job, workerCount int) [][]domain.Job
}

// RoundRobinScheduler distributes jobs evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes jobs evenly across workers using round-robin
func (s *RoundRobinScheduler) Schedule(jobs []domain.Job, workerCount int) [][]domain.Job {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]domain.Job, workerCount)
	for i := range distribution {
		distribution[i] = make([]domain.Job, 0)
	}

	for i, job := range jobs {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], job)
	}

	return distribution
}
