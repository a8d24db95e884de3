// Package scheduler contains the job scheduler service: the composition of
// authorization, validation, admission control, estimation, the priority
// queue and the dispatch loop. All job state changes flow through here.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spectraproject/spectra/internal/common/admission"
	"github.com/spectraproject/spectra/internal/common/auth"
	"github.com/spectraproject/spectra/internal/common/circuitbreaker"
	"github.com/spectraproject/spectra/internal/common/eventstream"
	"github.com/spectraproject/spectra/internal/common/healthmonitor"
	"github.com/spectraproject/spectra/internal/common/retrying"
	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/common/util"
	"github.com/spectraproject/spectra/internal/spectra/domain"
	"github.com/spectraproject/spectra/internal/spectra/estimator"
	"github.com/spectraproject/spectra/internal/spectra/lifecycle"
	"github.com/spectraproject/spectra/internal/spectra/metrics"
	"github.com/spectraproject/spectra/internal/spectra/permissions"
	"github.com/spectraproject/spectra/internal/spectra/queue"
	"github.com/spectraproject/spectra/internal/spectra/repository"
	"github.com/spectraproject/spectra/internal/spectra/validation"
)

type Config struct {
	// Workers is the number of concurrent dispatch workers.
	Workers int
	// PollInterval is how long an idle worker waits before checking the
	// queue again.
	PollInterval time.Duration
	// AdmissionCostPerJob is the admission ledger cost of one job.
	AdmissionCostPerJob int64
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.AdmissionCostPerJob <= 0 {
		c.AdmissionCostPerJob = 1
	}
	return c
}

// SubmitResult is returned to the caller on successful submission.
type SubmitResult struct {
	JobId               string
	EstimatedCompletion time.Time
}

// Service exposes submit/status/cancel/pause/resume and runs the dispatch
// loop. Live job objects (queued, paused or running) are mutated only while
// holding jobsMu; the queue and the admission ledger carry their own locks.
// A job is never present in the queue and the active set at the same time:
// dispatch removes it from the queue before storing it in the active set.
type Service struct {
	config        Config
	checker       auth.PermissionChecker
	repo          repository.JobRepository
	queue         *queue.PriorityQueue
	estimator     *estimator.Estimator
	admission     *admission.Controller
	storeBreaker  *circuitbreaker.Breaker
	storeRetrier  *retrying.Executor
	eventsMonitor *healthmonitor.RecoveringMonitor
	events        eventstream.EventStream
	executor      JobExecutor
	metrics       *metrics.Metrics
	clock         util.Clock

	jobsMu sync.Mutex
	paused map[string]*domain.Job
	active sync.Map // job id -> *domain.Job, RUNNING jobs only

	runningCount   int64
	completedTotal uint64
	failedTotal    uint64
}

func NewService(
	config Config,
	checker auth.PermissionChecker,
	repo repository.JobRepository,
	est *estimator.Estimator,
	admissionController *admission.Controller,
	storeBreaker *circuitbreaker.Breaker,
	storeRetrier *retrying.Executor,
	eventsMonitor *healthmonitor.RecoveringMonitor,
	events eventstream.EventStream,
	executor JobExecutor,
	schedulerMetrics *metrics.Metrics,
	clock util.Clock,
) *Service {
	if clock == nil {
		clock = &util.DefaultClock{}
	}
	return &Service{
		config:        config.withDefaults(),
		checker:       checker,
		repo:          repo,
		queue:         queue.New(),
		estimator:     est,
		admission:     admissionController,
		storeBreaker:  storeBreaker,
		storeRetrier:  storeRetrier,
		eventsMonitor: eventsMonitor,
		events:        events,
		executor:      executor,
		metrics:       schedulerMetrics,
		clock:         clock,
		paused:        map[string]*domain.Job{},
	}
}

// SubmitJob validates, authorizes, admits and enqueues a new job. Rejections
// happen before any state is created: a rejected submission has no job ID
// and leaves the ledger, queue and store untouched.
func (s *Service) SubmitJob(ctx context.Context, userID string, params domain.JobParameters) (*SubmitResult, error) {
	if err := s.authorizeSubmit(ctx, userID, params); err != nil {
		s.metrics.SubmissionsRejected.WithLabelValues(metrics.RejectedPermission).Inc()
		return nil, err
	}
	if err := validation.JobParameters(params); err != nil {
		s.metrics.SubmissionsRejected.WithLabelValues(metrics.RejectedValidation).Inc()
		return nil, err
	}
	cost := s.config.AdmissionCostPerJob
	if err := s.admission.TryAdmit(cost); err != nil {
		s.metrics.SubmissionsRejected.WithLabelValues(metrics.RejectedCapacity).Inc()
		log.Warnf("submission from %s shed: %v", userID, err)
		return nil, err
	}

	plan := s.estimator.Estimate(params)
	priority := domain.PriorityNormal
	if params.HighPriority {
		priority = domain.PriorityHigh
	}
	job := &domain.Job{
		Id:                  util.NewULID(),
		Owner:               userID,
		Parameters:          params,
		Status:              domain.JobSubmitted,
		Priority:            priority,
		Created:             s.clock.Now(),
		EstimatedCompletion: plan.EstimatedCompletion,
		AllocatedCores:      plan.EstimatedCores,
		AllocatedMemoryMB:   plan.EstimatedMemoryMB,
	}
	if err := lifecycle.Transition(job, domain.JobQueued, s.clock); err != nil {
		s.admission.Release(cost)
		return nil, err
	}
	// Write through to the store before exposing the job: a submission the
	// store never saw must fail atomically.
	if err := s.persist(ctx, job.DeepCopy()); err != nil {
		s.admission.Release(cost)
		s.metrics.SubmissionsRejected.WithLabelValues(metrics.RejectedStore).Inc()
		return nil, errors.Wrapf(err, "failed to persist job %s", job.Id)
	}

	s.jobsMu.Lock()
	s.queue.Enqueue(job)
	snapshot := job.DeepCopy()
	s.jobsMu.Unlock()

	s.metrics.JobsSubmitted.Inc()
	s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
	s.publish(eventstream.TopicJobQueued, snapshot)
	log.Infof("job %s (%q) submitted by %s, estimated completion %s",
		job.Id, params.Name, userID, plan.EstimatedCompletion.Format(time.RFC3339))
	return &SubmitResult{JobId: job.Id, EstimatedCompletion: plan.EstimatedCompletion}, nil
}

func (s *Service) authorizeSubmit(ctx context.Context, userID string, params domain.JobParameters) error {
	ok, err := s.checker.UserHasPermission(ctx, userID, permissions.SubmitJobs)
	if err != nil {
		return errors.Wrap(err, "failed to resolve role")
	}
	if !ok {
		return &spectraerrors.ErrNoPermission{
			Principal:  userID,
			Permission: string(permissions.SubmitJobs),
			Action:     "submit job",
		}
	}
	if params.HighPriority {
		// High-priority submission is rejected outright for lower roles,
		// never silently downgraded.
		ok, err := s.checker.UserHasPermission(ctx, userID, permissions.SubmitHighPriorityJobs)
		if err != nil {
			return errors.Wrap(err, "failed to resolve role")
		}
		if !ok {
			return &spectraerrors.ErrNoPermission{
				Principal:  userID,
				Permission: string(permissions.SubmitHighPriorityJobs),
				Action:     "submit high-priority job",
			}
		}
	}
	return nil
}

// GetJobStatus returns a snapshot of the job. Jobs owned by other users are
// reported as not found unless the caller may watch all jobs, so existence
// is not leaked across owners.
func (s *Service) GetJobStatus(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := s.findJob(jobID)
	if err != nil {
		return nil, err
	}
	if job.Owner != userID {
		ok, err := s.checker.UserHasPermission(ctx, userID, permissions.WatchAllJobs)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve role")
		}
		if !ok {
			return nil, &spectraerrors.ErrNotFound{Type: "job", Value: jobID}
		}
	}
	return job, nil
}

// authorizeJobControl gates cancel/pause/resume. Owners need the cancel
// permission; acting on someone else's job needs the cross-owner permission
// and otherwise reports not found, so existence is not leaked.
func (s *Service) authorizeJobControl(ctx context.Context, job *domain.Job, userID, action string) error {
	if job.Owner == userID {
		ok, err := s.checker.UserHasPermission(ctx, userID, permissions.CancelJobs)
		if err != nil {
			return errors.Wrap(err, "failed to resolve role")
		}
		if !ok {
			return &spectraerrors.ErrNoPermission{
				Principal:  userID,
				Permission: string(permissions.CancelJobs),
				Action:     action,
			}
		}
		return nil
	}
	ok, err := s.checker.UserHasPermission(ctx, userID, permissions.CancelAnyJobs)
	if err != nil {
		return errors.Wrap(err, "failed to resolve role")
	}
	if !ok {
		return &spectraerrors.ErrNotFound{Type: "job", Value: job.Id}
	}
	return nil
}

// findJob returns a snapshot of the job from the live sets or the store.
func (s *Service) findJob(jobID string) (*domain.Job, error) {
	if j, ok := s.active.Load(jobID); ok {
		s.jobsMu.Lock()
		snapshot := j.(*domain.Job).DeepCopy()
		s.jobsMu.Unlock()
		return snapshot, nil
	}
	s.jobsMu.Lock()
	if job := s.queue.Get(jobID); job != nil {
		snapshot := job.DeepCopy()
		s.jobsMu.Unlock()
		return snapshot, nil
	}
	if job, ok := s.paused[jobID]; ok {
		snapshot := job.DeepCopy()
		s.jobsMu.Unlock()
		return snapshot, nil
	}
	s.jobsMu.Unlock()
	return s.repo.GetJob(jobID)
}

// CancelJob cancels a queued, paused or running job owned by userID. For a
// running job cancellation is cooperative: the status flips to CANCELLED
// immediately and the executing worker observes it and stops. Cancelling a
// job owned by someone else reports not found; cancelling a terminal job
// returns false.
func (s *Service) CancelJob(ctx context.Context, jobID, userID string) (bool, error) {
	job, err := s.findJob(jobID)
	if err != nil {
		return false, err
	}
	if err := s.authorizeJobControl(ctx, job, userID, "cancel job"); err != nil {
		return false, err
	}

	s.jobsMu.Lock()
	if live := s.queue.Remove(jobID); live != nil {
		// Still queued: take it out before it can be dispatched.
		if err := lifecycle.Transition(live, domain.JobCancelled, s.clock); err != nil {
			s.jobsMu.Unlock()
			return false, err
		}
		snapshot := live.DeepCopy()
		s.jobsMu.Unlock()

		s.admission.Release(s.config.AdmissionCostPerJob)
		s.metrics.JobsCancelled.Inc()
		s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
		s.persistBestEffort(ctx, snapshot)
		s.publish(eventstream.TopicJobCancelled, snapshot)
		log.Infof("queued job %s cancelled by %s", jobID, userID)
		return true, nil
	}
	if live, ok := s.paused[jobID]; ok {
		if err := lifecycle.Transition(live, domain.JobCancelled, s.clock); err != nil {
			s.jobsMu.Unlock()
			return false, err
		}
		delete(s.paused, jobID)
		snapshot := live.DeepCopy()
		s.jobsMu.Unlock()

		s.admission.Release(s.config.AdmissionCostPerJob)
		s.metrics.JobsCancelled.Inc()
		s.persistBestEffort(ctx, snapshot)
		s.publish(eventstream.TopicJobCancelled, snapshot)
		log.Infof("paused job %s cancelled by %s", jobID, userID)
		return true, nil
	}
	if j, ok := s.active.Load(jobID); ok {
		live := j.(*domain.Job)
		if err := lifecycle.Transition(live, domain.JobCancelled, s.clock); err != nil {
			s.jobsMu.Unlock()
			return false, err
		}
		snapshot := live.DeepCopy()
		s.jobsMu.Unlock()

		// The worker running this job observes the terminal status, stops,
		// releases admission and removes it from the active set.
		s.metrics.JobsCancelled.Inc()
		s.persistBestEffort(ctx, snapshot)
		s.publish(eventstream.TopicJobCancelled, snapshot)
		log.Infof("running job %s cancelled by %s; worker will stop cooperatively", jobID, userID)
		return true, nil
	}
	s.jobsMu.Unlock()

	// Only known to the store: SUBMITTED mid-write or already terminal.
	return false, nil
}

// PauseJob pauses a queued or running job owned by userID. Pausing a
// running job is cooperative, like cancellation.
func (s *Service) PauseJob(ctx context.Context, jobID, userID string) (bool, error) {
	job, err := s.findJob(jobID)
	if err != nil {
		return false, err
	}
	if err := s.authorizeJobControl(ctx, job, userID, "pause job"); err != nil {
		return false, err
	}

	s.jobsMu.Lock()
	if live := s.queue.Remove(jobID); live != nil {
		// A resumed job awaiting dispatch is still PAUSED and needs no
		// transition; it just moves back to the paused set. A job may
		// never leave the queue without landing somewhere, so on a
		// transition failure it goes back in.
		if live.Status != domain.JobPaused {
			if err := lifecycle.Transition(live, domain.JobPaused, s.clock); err != nil {
				s.queue.Enqueue(live)
				s.jobsMu.Unlock()
				return false, err
			}
		}
		s.paused[jobID] = live
		snapshot := live.DeepCopy()
		s.jobsMu.Unlock()

		s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
		s.persistBestEffort(ctx, snapshot)
		s.publish(eventstream.TopicJobPaused, snapshot)
		return true, nil
	}
	if j, ok := s.active.Load(jobID); ok {
		live := j.(*domain.Job)
		if err := lifecycle.Transition(live, domain.JobPaused, s.clock); err != nil {
			s.jobsMu.Unlock()
			return false, err
		}
		snapshot := live.DeepCopy()
		s.jobsMu.Unlock()

		s.persistBestEffort(ctx, snapshot)
		s.publish(eventstream.TopicJobPaused, snapshot)
		return true, nil
	}
	s.jobsMu.Unlock()
	return false, nil
}

// ResumeJob puts a paused job back in line for dispatch. The job keeps its
// original submission time, so it does not lose its FIFO position within
// its priority band.
func (s *Service) ResumeJob(ctx context.Context, jobID, userID string) (bool, error) {
	job, err := s.findJob(jobID)
	if err != nil {
		return false, err
	}
	if err := s.authorizeJobControl(ctx, job, userID, "resume job"); err != nil {
		return false, err
	}

	s.jobsMu.Lock()
	live, ok := s.paused[jobID]
	if !ok {
		s.jobsMu.Unlock()
		return false, nil
	}
	delete(s.paused, jobID)
	// The job re-enters the queue still PAUSED; dispatch transitions it
	// PAUSED -> RUNNING when a worker picks it up.
	s.queue.Enqueue(live)
	snapshot := live.DeepCopy()
	s.jobsMu.Unlock()

	s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
	s.publish(eventstream.TopicJobResumed, snapshot)
	return true, nil
}

// UpdateProgress records progress for a running job. Progress only moves
// forward and only while the job is RUNNING.
func (s *Service) UpdateProgress(ctx context.Context, jobID string, pct int) error {
	if pct < 0 || pct > 100 {
		return &spectraerrors.ErrInvalidArgument{Name: "progress", Value: pct, Message: "progress must be between 0 and 100"}
	}
	j, ok := s.active.Load(jobID)
	if !ok {
		return &spectraerrors.ErrNotFound{Type: "running job", Value: jobID}
	}
	live := j.(*domain.Job)

	s.jobsMu.Lock()
	if live.Status != domain.JobRunning {
		s.jobsMu.Unlock()
		return &spectraerrors.ErrInvalidArgument{Name: "progress", Value: pct, Message: "job is not running"}
	}
	if pct < live.Progress {
		current := live.Progress
		s.jobsMu.Unlock()
		return &spectraerrors.ErrInvalidArgument{
			Name: "progress", Value: pct,
			Message: fmt.Sprintf("progress cannot move backwards from %d", current),
		}
	}
	live.Progress = pct
	snapshot := live.DeepCopy()
	s.jobsMu.Unlock()

	s.persistBestEffort(ctx, snapshot)
	s.publish(eventstream.TopicJobProgress, snapshot)
	return nil
}

// GetQueueStatus returns aggregate queue counters.
func (s *Service) GetQueueStatus() domain.QueueStatus {
	return domain.QueueStatus{
		Queued:         s.queue.Len(),
		Running:        int(atomic.LoadInt64(&s.runningCount)),
		CompletedTotal: atomic.LoadUint64(&s.completedTotal),
		FailedTotal:    atomic.LoadUint64(&s.failedTotal),
	}
}

// persist writes a job snapshot through the circuit breaker and the retry
// executor. Transient store failures are retried; a persistently failing
// store opens the breaker and fails fast.
func (s *Service) persist(ctx context.Context, snapshot *domain.Job) error {
	return s.storeBreaker.Execute(func() error {
		return s.storeRetrier.Do(ctx, func() error {
			return s.repo.SaveJob(snapshot)
		})
	})
}

// persistBestEffort is persist for paths where the in-memory transition has
// already happened and must not be rolled back; failures are logged.
func (s *Service) persistBestEffort(ctx context.Context, snapshot *domain.Job) {
	if err := s.persist(ctx, snapshot); err != nil {
		log.WithError(err).Errorf("failed to persist job %s in status %s", snapshot.Id, snapshot.Status)
	}
}

// publish sends a lifecycle event without ever blocking or failing the
// calling job operation. The event stream sits behind a recovery monitor:
// while the bus is unhealthy, publishes are dropped fast instead of piling
// up.
func (s *Service) publish(topic string, snapshot *domain.Job) {
	event := eventstream.NewEvent(topic, snapshot)
	go func() {
		err := s.eventsMonitor.Execute(func() error {
			return s.events.Publish(event)
		})
		if err != nil {
			log.WithError(err).Warnf("failed to publish %s event for job %s", topic, event.JobId)
		}
	}()
}

// Run executes the dispatch loop until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Infof("dispatch loop starting with %d workers", s.config.Workers)
	defer log.Info("dispatch loop stopped")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.config.Workers; i++ {
		g.Go(func() error {
			s.runWorker(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job := s.dispatchNext(ctx)
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.PollInterval):
			}
			continue
		}
		s.runJob(ctx, job)
	}
}

// dispatchNext removes the highest-priority job from the queue and marks it
// RUNNING. The job leaves the queue before entering the active set, so it is
// never observable in both, and a dequeued job can never be dispatched twice.
func (s *Service) dispatchNext(ctx context.Context) *domain.Job {
	s.jobsMu.Lock()
	job := s.queue.Dequeue()
	if job == nil {
		s.jobsMu.Unlock()
		return nil
	}
	// Fresh jobs are QUEUED, resumed jobs are PAUSED; both may run.
	if err := lifecycle.Transition(job, domain.JobRunning, s.clock); err != nil {
		s.jobsMu.Unlock()
		log.WithError(err).Errorf("dropping undispatchable job %s", job.Id)
		return nil
	}
	s.active.Store(job.Id, job)
	snapshot := job.DeepCopy()
	s.jobsMu.Unlock()

	atomic.AddInt64(&s.runningCount, 1)
	s.metrics.RunningJobs.Set(float64(atomic.LoadInt64(&s.runningCount)))
	s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
	s.persistBestEffort(ctx, snapshot)
	s.publish(eventstream.TopicJobStarted, snapshot)
	log.Infof("job %s dispatched", job.Id)
	return job
}

func (s *Service) runJob(ctx context.Context, job *domain.Job) {
	start := s.clock.Now()
	execErr := s.executor.Execute(ctx, job,
		func(pct int) {
			if err := s.UpdateProgress(ctx, job.Id, pct); err != nil {
				log.WithError(err).Debugf("progress update for job %s rejected", job.Id)
			}
		},
		func() bool {
			s.jobsMu.Lock()
			defer s.jobsMu.Unlock()
			return job.Status != domain.JobRunning
		},
	)
	actual := s.clock.Now().Sub(start)

	s.jobsMu.Lock()
	switch job.Status {
	case domain.JobCancelled:
		// Cancelled mid-run; the cancel path already persisted and
		// published. Clean up the worker-side state.
		s.jobsMu.Unlock()
		s.detachActive(job.Id)
		s.admission.Release(s.config.AdmissionCostPerJob)
		return
	case domain.JobPaused:
		s.paused[job.Id] = job
		s.jobsMu.Unlock()
		s.detachActive(job.Id)
		// Paused jobs keep their admission slot: they are still
		// outstanding work.
		return
	}

	var topic string
	if execErr != nil {
		job.Error = execErr.Error()
		if err := lifecycle.Transition(job, domain.JobFailed, s.clock); err != nil {
			log.WithError(err).Errorf("failed to record failure of job %s", job.Id)
		}
		atomic.AddUint64(&s.failedTotal, 1)
		s.metrics.JobsFailed.Inc()
		topic = eventstream.TopicJobFailed
	} else {
		job.Progress = 100
		if err := lifecycle.Transition(job, domain.JobCompleted, s.clock); err != nil {
			log.WithError(err).Errorf("failed to record completion of job %s", job.Id)
		}
		atomic.AddUint64(&s.completedTotal, 1)
		s.metrics.JobsCompleted.Inc()
		topic = eventstream.TopicJobCompleted
	}
	snapshot := job.DeepCopy()
	s.jobsMu.Unlock()

	s.detachActive(job.Id)
	s.admission.Release(s.config.AdmissionCostPerJob)
	s.persistBestEffort(ctx, snapshot)
	s.publish(topic, snapshot)

	if execErr == nil {
		// Feed the estimator off the completion path; model updates never
		// block job operations.
		params := snapshot.Parameters
		go s.estimator.UpdateModelWithActualData(params, actual)
		log.Infof("job %s completed in %s", job.Id, actual)
	} else {
		log.WithError(execErr).Warnf("job %s failed after %s", job.Id, actual)
	}
}

func (s *Service) detachActive(jobID string) {
	s.active.Delete(jobID)
	atomic.AddInt64(&s.runningCount, -1)
	s.metrics.RunningJobs.Set(float64(atomic.LoadInt64(&s.runningCount)))
}

// RestoreFromStore rebuilds the in-memory queue from the durable store after
// a restart. Jobs recorded as RUNNING were lost with the previous process
// and are marked FAILED; QUEUED and PAUSED jobs are re-admitted, and shed
// (cancelled) if they no longer fit within capacity.
func (s *Service) RestoreFromStore(ctx context.Context) error {
	orphaned, err := s.repo.GetJobsByStatus(domain.JobRunning)
	if err != nil {
		return errors.Wrap(err, "failed to load running jobs for recovery")
	}
	for _, job := range orphaned {
		job.Error = "orphaned by scheduler restart"
		if err := lifecycle.Transition(job, domain.JobFailed, s.clock); err != nil {
			return err
		}
		atomic.AddUint64(&s.failedTotal, 1)
		s.metrics.JobsFailed.Inc()
		s.persistBestEffort(ctx, job)
		s.publish(eventstream.TopicJobFailed, job)
		log.Warnf("job %s was running at shutdown; marked failed", job.Id)
	}

	pausedJobs, err := s.repo.GetJobsByStatus(domain.JobPaused)
	if err != nil {
		return errors.Wrap(err, "failed to load paused jobs for recovery")
	}
	for _, job := range pausedJobs {
		if !s.readmit(ctx, job) {
			continue
		}
		s.jobsMu.Lock()
		s.paused[job.Id] = job
		s.jobsMu.Unlock()
	}

	queued, err := s.repo.GetQueuedJobs()
	if err != nil {
		return errors.Wrap(err, "failed to load queued jobs for recovery")
	}
	for _, job := range queued {
		if !s.readmit(ctx, job) {
			continue
		}
		s.jobsMu.Lock()
		s.queue.Enqueue(job)
		s.jobsMu.Unlock()
	}
	s.metrics.QueuedJobs.Set(float64(s.queue.Len()))
	log.Infof("restored %d queued and %d paused jobs from store", s.queue.Len(), len(pausedJobs))
	return nil
}

// readmit reserves capacity for a restored job, shedding it if the ledger
// is full. Returns whether the job was admitted.
func (s *Service) readmit(ctx context.Context, job *domain.Job) bool {
	if err := s.admission.TryAdmit(s.config.AdmissionCostPerJob); err != nil {
		job.Error = "shed during restart: system at capacity"
		if terr := lifecycle.Transition(job, domain.JobCancelled, s.clock); terr != nil {
			log.WithError(terr).Errorf("failed to shed restored job %s", job.Id)
			return false
		}
		s.metrics.JobsCancelled.Inc()
		s.persistBestEffort(ctx, job)
		s.publish(eventstream.TopicJobCancelled, job)
		log.Warnf("restored job %s shed: %v", job.Id, err)
		return false
	}
	return true
}
