// Package lifecycle owns the job status transition table. All status changes
// anywhere in the scheduler go through Transition; no other component writes
// job.Status directly.
package lifecycle

import (
	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/common/util"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

var allowedTransitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobSubmitted: {domain.JobQueued, domain.JobFailed, domain.JobCancelled},
	domain.JobQueued:    {domain.JobRunning, domain.JobPaused, domain.JobCancelled},
	domain.JobRunning:   {domain.JobCompleted, domain.JobFailed, domain.JobCancelled, domain.JobPaused},
	domain.JobPaused:    {domain.JobRunning, domain.JobCancelled},
	domain.JobCompleted: {},
	domain.JobFailed:    {},
	domain.JobCancelled: {},
}

// CanTransition reports whether target is reachable from current in one step.
func CanTransition(current, target domain.JobStatus) bool {
	for _, allowed := range allowedTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves job to target, recording the completion time for terminal
// targets. It returns ErrInvalidTransition and leaves the job untouched if
// the move is not in the transition table; terminal states in particular are
// final and never silently overwritten. The caller is responsible for holding
// whatever lock guards the job during the call.
func Transition(job *domain.Job, target domain.JobStatus, clock util.Clock) error {
	if !CanTransition(job.Status, target) {
		return &spectraerrors.ErrInvalidTransition{
			JobId: job.Id,
			From:  string(job.Status),
			To:    string(target),
		}
	}
	job.Status = target
	if target.IsTerminal() {
		now := clock.Now()
		job.ActualCompletion = &now
	}
	return nil
}
