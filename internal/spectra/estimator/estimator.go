// Package estimator turns job parameters into a resource plan: predicted
// completion time, cores and memory. The model is a transparent heuristic
// with tunable constants; actual execution outcomes are folded back into the
// per-event base time via a moving average.
package estimator

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spectraproject/spectra/internal/common/util"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

type Config struct {
	// Base processing time per expected event.
	BaseTimePerEvent time.Duration
	// Slope of the energy-threshold time penalty.
	EnergyComplexityCoefficient float64
	// Duration multiplier applied to high-priority jobs (< 1 means faster).
	HighPrioritySpeedup float64
	// Hard cap on any predicted duration.
	MaxHorizon time.Duration
	// Events one core is assumed to process concurrently with others.
	EventsPerCore int64
	MaxCores      int
	BaseMemoryMB  int64
	// Memory added per 1000 expected events.
	MemoryPerKiloEventMB int64
	MinMemoryMB          int64
	MaxMemoryMB          int64
	// Slope of the energy-threshold memory penalty.
	EnergyMemoryCoefficient float64
	// Weight of a new observation when folding actual execution times into
	// the per-event base time. Must be in (0, 1].
	FeedbackSmoothing float64
}

func (c Config) withDefaults() Config {
	if c.BaseTimePerEvent <= 0 {
		c.BaseTimePerEvent = 100 * time.Millisecond
	}
	if c.EnergyComplexityCoefficient <= 0 {
		c.EnergyComplexityCoefficient = 0.1
	}
	if c.HighPrioritySpeedup <= 0 || c.HighPrioritySpeedup >= 1 {
		c.HighPrioritySpeedup = 0.7
	}
	if c.MaxHorizon <= 0 {
		c.MaxHorizon = 24 * time.Hour
	}
	if c.EventsPerCore <= 0 {
		c.EventsPerCore = 1000
	}
	if c.MaxCores <= 0 {
		c.MaxCores = 16
	}
	if c.BaseMemoryMB <= 0 {
		c.BaseMemoryMB = 512
	}
	if c.MemoryPerKiloEventMB <= 0 {
		c.MemoryPerKiloEventMB = 64
	}
	if c.MinMemoryMB <= 0 {
		c.MinMemoryMB = 256
	}
	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = 32768
	}
	if c.EnergyMemoryCoefficient <= 0 {
		c.EnergyMemoryCoefficient = 0.05
	}
	if c.FeedbackSmoothing <= 0 || c.FeedbackSmoothing > 1 {
		c.FeedbackSmoothing = 0.2
	}
	return c
}

// Plan is the estimator output folded into the job at enqueue time.
type Plan struct {
	EstimatedCompletion time.Time
	EstimatedCores      int
	EstimatedMemoryMB   int64
}

// Estimator is safe for concurrent use. Estimates are deterministic given
// the parameters, the learned per-event time and the current load factor.
type Estimator struct {
	config Config
	clock  util.Clock
	// loadFactor reports current system load in [0, 1]; it drives the
	// prediction jitter. Using a shared load signal rather than per-call
	// randomness keeps estimates monotone across parameter sets compared
	// at the same instant.
	loadFactor func() float64

	mu               sync.Mutex
	baseTimePerEvent time.Duration
}

func New(config Config, loadFactor func() float64) *Estimator {
	return NewWithClock(config, loadFactor, &util.DefaultClock{})
}

func NewWithClock(config Config, loadFactor func() float64, clock util.Clock) *Estimator {
	config = config.withDefaults()
	if loadFactor == nil {
		loadFactor = func() float64 { return 0.5 }
	}
	return &Estimator{
		config:           config,
		clock:            clock,
		loadFactor:       loadFactor,
		baseTimePerEvent: config.BaseTimePerEvent,
	}
}

// Estimate maps parameters to a resource plan. The predicted completion is
// always strictly after the current time and never further out than the
// configured horizon.
func (e *Estimator) Estimate(params domain.JobParameters) Plan {
	now := e.clock.Now()
	return Plan{
		EstimatedCompletion: now.Add(e.estimateDuration(params)),
		EstimatedCores:      e.estimateCores(params),
		EstimatedMemoryMB:   e.estimateMemoryMB(params),
	}
}

func (e *Estimator) estimateDuration(params domain.JobParameters) time.Duration {
	base := float64(params.ExpectedEvents) * float64(e.currentBaseTimePerEvent())
	energyFactor := 1 + params.EnergyThreshold*e.config.EnergyComplexityCoefficient
	adjusted := base * energyFactor
	if params.HighPriority {
		adjusted *= e.config.HighPrioritySpeedup
	}
	adjusted *= e.jitterFactor()

	// Cap before converting: durations beyond the horizon can overflow
	// time.Duration for very large event counts.
	if adjusted > float64(e.config.MaxHorizon) {
		adjusted = float64(e.config.MaxHorizon)
	}
	d := time.Duration(adjusted)
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

// jitterFactor maps the current load signal into [0.8, 1.2].
func (e *Estimator) jitterFactor() float64 {
	load := e.loadFactor()
	if load < 0 {
		load = 0
	}
	if load > 1 {
		load = 1
	}
	return 0.8 + 0.4*load
}

func (e *Estimator) estimateCores(params domain.JobParameters) int {
	cores := params.ExpectedEvents / e.config.EventsPerCore
	if cores < 1 {
		cores = 1
	}
	if params.HighPriority {
		cores *= 2
	}
	if cores > int64(e.config.MaxCores) {
		cores = int64(e.config.MaxCores)
	}
	return int(cores)
}

func (e *Estimator) estimateMemoryMB(params domain.JobParameters) int64 {
	memory := e.config.BaseMemoryMB + (params.ExpectedEvents/1000)*e.config.MemoryPerKiloEventMB
	if memory < e.config.MinMemoryMB {
		memory = e.config.MinMemoryMB
	}
	energyMemoryFactor := 1 + params.EnergyThreshold*e.config.EnergyMemoryCoefficient
	memory = int64(float64(memory) * energyMemoryFactor)
	if memory < e.config.MinMemoryMB {
		memory = e.config.MinMemoryMB
	}
	if memory > e.config.MaxMemoryMB {
		memory = e.config.MaxMemoryMB
	}
	return memory
}

func (e *Estimator) currentBaseTimePerEvent() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseTimePerEvent
}

// UpdateModelWithActualData folds an observed execution time into future
// estimates by moving the per-event base time towards the observed value.
// It never blocks on anything and is intended to be called after completion,
// off the submission path.
func (e *Estimator) UpdateModelWithActualData(params domain.JobParameters, actualExecution time.Duration) {
	if params.ExpectedEvents <= 0 || actualExecution <= 0 {
		return
	}
	observedPerEvent := float64(actualExecution) / float64(params.ExpectedEvents)
	// Undo the known multiplicative adjustments so observations from
	// high-priority and high-energy jobs remain comparable.
	observedPerEvent /= 1 + params.EnergyThreshold*e.config.EnergyComplexityCoefficient
	if params.HighPriority {
		observedPerEvent /= e.config.HighPrioritySpeedup
	}

	alpha := e.config.FeedbackSmoothing
	e.mu.Lock()
	old := e.baseTimePerEvent
	updated := time.Duration(alpha*observedPerEvent + (1-alpha)*float64(old))
	if updated <= 0 {
		updated = time.Nanosecond
	}
	e.baseTimePerEvent = updated
	e.mu.Unlock()

	log.Debugf("estimator base time per event adjusted %s -> %s", old, updated)
}
