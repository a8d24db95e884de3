// Package eventstream publishes job lifecycle events to the external
// notification bus. Publishing is fire-and-forget from the scheduler's point
// of view: a publish failure never fails or blocks a job operation.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/spectraproject/spectra/internal/spectra/domain"
)

// Topics for job lifecycle events.
const (
	TopicJobQueued    = "job.queued"
	TopicJobStarted   = "job.started"
	TopicJobProgress  = "job.progress"
	TopicJobPaused    = "job.paused"
	TopicJobResumed   = "job.resumed"
	TopicJobCompleted = "job.completed"
	TopicJobFailed    = "job.failed"
	TopicJobCancelled = "job.cancelled"

	// TopicHeartbeat carries bus liveness probes, not job state.
	TopicHeartbeat = "scheduler.heartbeat"
)

// Event is the wire payload published for each lifecycle change.
type Event struct {
	Id       string           `json:"id"`
	Topic    string           `json:"topic"`
	JobId    string           `json:"jobId"`
	Owner    string           `json:"owner"`
	Status   domain.JobStatus `json:"status"`
	Progress int              `json:"progress"`
	Error    string           `json:"error,omitempty"`
	Created  time.Time        `json:"created"`
}

// NewEvent builds an event for the job's current state.
func NewEvent(topic string, job *domain.Job) *Event {
	return &Event{
		Id:       uuid.NewString(),
		Topic:    topic,
		JobId:    job.Id,
		Owner:    job.Owner,
		Status:   job.Status,
		Progress: job.Progress,
		Error:    job.Error,
		Created:  time.Now(),
	}
}

type EventStream interface {
	Publish(event *Event) error
	Close() error
}

// NoOpEventStream discards all events, for deployments without a bus and
// for tests.
type NoOpEventStream struct{}

func (NoOpEventStream) Publish(*Event) error { return nil }
func (NoOpEventStream) Close() error         { return nil }
