package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

const (
	jobObjectPrefix = "Job:"
	jobQueuedKey    = "Job:Queued"
	jobStatusPrefix = "Job:Status:"

	terminalJobCacheTTL = 10 * time.Minute
)

// JobRepository is the durable store contract. Every state transition is
// written through to it; on startup the in-memory queue is rehydrated from
// it. Jobs are never deleted.
type JobRepository interface {
	// SaveJob durably records the job in its current state.
	SaveJob(job *domain.Job) error
	// GetJob returns the stored job, or ErrNotFound.
	GetJob(id string) (*domain.Job, error)
	// GetQueuedJobs returns all QUEUED jobs ordered by priority ascending,
	// then submission time ascending.
	GetQueuedJobs() ([]*domain.Job, error)
	// GetJobsByStatus returns all jobs currently in the given status.
	GetJobsByStatus(status domain.JobStatus) ([]*domain.Job, error)
}

// RedisJobRepository stores each job as a JSON object keyed by ID, with a
// sorted set over queued jobs (scored by priority then submission time) and
// one membership set per status. All writes for one save go through a single
// transactional pipeline. Terminal jobs are additionally held in a local
// read cache since they can no longer change.
type RedisJobRepository struct {
	db            redis.UniversalClient
	terminalCache *cache.Cache
}

func NewRedisJobRepository(db redis.UniversalClient) *RedisJobRepository {
	return &RedisJobRepository{
		db:            db,
		terminalCache: cache.New(terminalJobCacheTTL, 2*terminalJobCacheTTL),
	}
}

var allStatuses = []domain.JobStatus{
	domain.JobSubmitted, domain.JobQueued, domain.JobRunning, domain.JobPaused,
	domain.JobCompleted, domain.JobFailed, domain.JobCancelled,
}

// queueScore orders the queued sorted set by priority first and submission
// time second. Priorities are small integers and timestamps are millisecond
// precision, so the combined score stays well within float64's exact
// integer range.
func queueScore(job *domain.Job) float64 {
	return float64(job.Priority)*1e14 + float64(job.Created.UnixMilli())
}

func (repo *RedisJobRepository) SaveJob(job *domain.Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return errors.WithStack(err)
	}

	pipe := repo.db.TxPipeline()
	pipe.Set(jobObjectPrefix+job.Id, jobData, 0)
	for _, status := range allStatuses {
		if status == job.Status {
			pipe.SAdd(jobStatusPrefix+string(status), job.Id)
		} else {
			pipe.SRem(jobStatusPrefix+string(status), job.Id)
		}
	}
	if job.Status == domain.JobQueued {
		pipe.ZAdd(jobQueuedKey, redis.Z{Member: job.Id, Score: queueScore(job)})
	} else {
		pipe.ZRem(jobQueuedKey, job.Id)
	}
	if _, err := pipe.Exec(); err != nil {
		return errors.Wrapf(err, "failed to save job %s", job.Id)
	}

	if job.Status.IsTerminal() {
		repo.terminalCache.Set(job.Id, job.DeepCopy(), cache.DefaultExpiration)
	}
	return nil
}

func (repo *RedisJobRepository) GetJob(id string) (*domain.Job, error) {
	if cached, ok := repo.terminalCache.Get(id); ok {
		return cached.(*domain.Job).DeepCopy(), nil
	}

	data, err := repo.db.Get(jobObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, &spectraerrors.ErrNotFound{Type: "job", Value: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load job %s", id)
	}
	job := &domain.Job{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal job %s", id)
	}
	return job, nil
}

func (repo *RedisJobRepository) GetQueuedJobs() ([]*domain.Job, error) {
	ids, err := repo.db.ZRange(jobQueuedKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list queued jobs")
	}
	return repo.getJobsByIds(ids)
}

func (repo *RedisJobRepository) GetJobsByStatus(status domain.JobStatus) ([]*domain.Job, error) {
	ids, err := repo.db.SMembers(jobStatusPrefix + string(status)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list jobs with status %s", status)
	}
	return repo.getJobsByIds(ids)
}

func (repo *RedisJobRepository) getJobsByIds(ids []string) ([]*domain.Job, error) {
	if len(ids) == 0 {
		return []*domain.Job{}, nil
	}

	pipe := repo.db.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(jobObjectPrefix + id)
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.Wrap(err, "failed to load jobs")
	}

	jobs := make([]*domain.Job, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			// Index and object got out of sync; skip rather than fail the
			// whole read.
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load job %s", ids[i])
		}
		job := &domain.Job{}
		if err := json.Unmarshal(data, job); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal job %s", ids[i])
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Health pings the backing store, for use as a monitored health probe.
func (repo *RedisJobRepository) Health() error {
	if err := repo.db.Ping().Err(); err != nil {
		return fmt.Errorf("redis ping failed: %v", err)
	}
	return nil
}
