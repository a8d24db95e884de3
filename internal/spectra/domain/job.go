package domain

import "time"

type JobStatus string

const (
	JobSubmitted JobStatus = "SUBMITTED"
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobPaused    JobStatus = "PAUSED"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Queue ordering keys. Lower value dequeues first.
const (
	PriorityHigh   = 0
	PriorityNormal = 10
)

// JobParameters is the immutable submission payload. It is validated once at
// submission time and never mutated afterwards.
type JobParameters struct {
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	ExpectedEvents  int64             `json:"expectedEvents"`
	EnergyThreshold float64           `json:"energyThreshold"`
	HighPriority    bool              `json:"highPriority"`
	Additional      map[string]string `json:"additional,omitempty"`
}

// Job is the unit of analysis work tracked through its lifecycle. Only
// Status, Progress, the allocation fields, ActualCompletion and Error are
// mutable, and only until a terminal status is reached. Jobs are never
// deleted; terminal jobs remain in the store for audit.
type Job struct {
	Id                  string        `json:"id"`
	Owner               string        `json:"owner"`
	Parameters          JobParameters `json:"parameters"`
	Status              JobStatus     `json:"status"`
	Priority            int           `json:"priority"`
	Created             time.Time     `json:"created"`
	EstimatedCompletion time.Time     `json:"estimatedCompletion"`
	ActualCompletion    *time.Time    `json:"actualCompletion,omitempty"`
	Progress            int           `json:"progress"`
	AllocatedCores      int           `json:"allocatedCores"`
	AllocatedMemoryMB   int64         `json:"allocatedMemoryMB"`
	Error               string        `json:"error,omitempty"`
}

// DeepCopy returns an independent copy of the job, used to hand snapshots to
// callers without exposing internally mutated state.
func (job *Job) DeepCopy() *Job {
	c := *job
	if job.ActualCompletion != nil {
		t := *job.ActualCompletion
		c.ActualCompletion = &t
	}
	if job.Parameters.Additional != nil {
		c.Parameters.Additional = make(map[string]string, len(job.Parameters.Additional))
		for k, v := range job.Parameters.Additional {
			c.Parameters.Additional[k] = v
		}
	}
	return &c
}

// QueueStatus is the aggregate view returned by GetQueueStatus.
type QueueStatus struct {
	Queued         int    `json:"queued"`
	Running        int    `json:"running"`
	CompletedTotal uint64 `json:"completedTotal"`
	FailedTotal    uint64 `json:"failedTotal"`
}
