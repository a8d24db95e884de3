package repository

import (
	"sort"
	"sync"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

// InMemoryJobRepository keeps all jobs in process memory. It backs tests and
// single-node deployments that opt out of redis; the contract is identical.
type InMemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{jobs: map[string]*domain.Job{}}
}

func (repo *InMemoryJobRepository) SaveJob(job *domain.Job) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.jobs[job.Id] = job.DeepCopy()
	return nil
}

func (repo *InMemoryJobRepository) GetJob(id string) (*domain.Job, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	job, ok := repo.jobs[id]
	if !ok {
		return nil, &spectraerrors.ErrNotFound{Type: "job", Value: id}
	}
	return job.DeepCopy(), nil
}

func (repo *InMemoryJobRepository) GetQueuedJobs() ([]*domain.Job, error) {
	jobs, err := repo.GetJobsByStatus(domain.JobQueued)
	if err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].Priority != jobs[j].Priority {
			return jobs[i].Priority < jobs[j].Priority
		}
		if !jobs[i].Created.Equal(jobs[j].Created) {
			return jobs[i].Created.Before(jobs[j].Created)
		}
		return jobs[i].Id < jobs[j].Id
	})
	return jobs, nil
}

func (repo *InMemoryJobRepository) GetJobsByStatus(status domain.JobStatus) ([]*domain.Job, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	jobs := []*domain.Job{}
	for _, job := range repo.jobs {
		if job.Status == status {
			jobs = append(jobs, job.DeepCopy())
		}
	}
	return jobs, nil
}
