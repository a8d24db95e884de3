package scheduler

import (
	"context"
	"time"

	"github.com/spectraproject/spectra/internal/spectra/domain"
)

// JobExecutor runs the actual analysis work for one job. Implementations
// live outside the scheduling core; the core only provides cooperative
// cancellation: interrupted() must be polled between units of work and the
// executor must return promptly once it reports true.
type JobExecutor interface {
	Execute(ctx context.Context, job *domain.Job, progress func(pct int), interrupted func() bool) error
}

// SimulatedExecutor stands in for a real execution backend. It sleeps for a
// scaled-down share of the job's predicted duration, reporting progress in
// fixed steps. Used by local deployments and tests.
type SimulatedExecutor struct {
	// StepDuration is how long each 10% progress step takes.
	StepDuration time.Duration
}

func (e *SimulatedExecutor) Execute(ctx context.Context, job *domain.Job, progress func(int), interrupted func() bool) error {
	step := e.StepDuration
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	for pct := 10; pct <= 100; pct += 10 {
		if interrupted() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
		progress(pct)
	}
	return nil
}
