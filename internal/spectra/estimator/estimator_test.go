package estimator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectraproject/spectra/internal/common/util"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

func fixedLoad(load float64) func() float64 {
	return func() float64 { return load }
}

func testEstimator(load float64) (*Estimator, *util.DummyClock) {
	clock := &util.DummyClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(Config{}, fixedLoad(load), clock), clock
}

func params(events int64, energy float64, highPriority bool) domain.JobParameters {
	return domain.JobParameters{
		Name:            "analysis",
		ExpectedEvents:  events,
		EnergyThreshold: energy,
		HighPriority:    highPriority,
	}
}

func TestCompletionStrictlyAfterNow(t *testing.T) {
	e, clock := testEstimator(0)
	for _, events := range []int64{1, 100, 1000000000} {
		plan := e.Estimate(params(events, 0.001, false))
		assert.True(t, plan.EstimatedCompletion.After(clock.T))
	}
}

func TestHorizonCap(t *testing.T) {
	e, clock := testEstimator(1)
	plan := e.Estimate(params(1<<40, 1000, false))
	assert.True(t, plan.EstimatedCompletion.Sub(clock.T) <= 24*time.Hour)
}

func TestMoreEventsNotFaster(t *testing.T) {
	e, _ := testEstimator(0.5)
	small := e.Estimate(params(1000, 5.0, false))
	large := e.Estimate(params(10000, 5.0, false))
	assert.False(t, large.EstimatedCompletion.Before(small.EstimatedCompletion))
	assert.GreaterOrEqual(t, large.EstimatedMemoryMB, small.EstimatedMemoryMB)
}

func TestHighPriorityNoLaterAndMoreCores(t *testing.T) {
	e, _ := testEstimator(0.5)
	normal := e.Estimate(params(5000, 5.0, false))
	high := e.Estimate(params(5000, 5.0, true))
	assert.False(t, high.EstimatedCompletion.After(normal.EstimatedCompletion))
	assert.GreaterOrEqual(t, high.EstimatedCores, normal.EstimatedCores)
}

func TestHigherEnergyNotEarlierNotLessMemory(t *testing.T) {
	e, _ := testEstimator(0.5)
	low := e.Estimate(params(5000, 1.0, false))
	hi := e.Estimate(params(5000, 50.0, false))
	assert.False(t, hi.EstimatedCompletion.Before(low.EstimatedCompletion))
	assert.GreaterOrEqual(t, hi.EstimatedMemoryMB, low.EstimatedMemoryMB)
}

func TestCoreAndMemoryBounds(t *testing.T) {
	e, _ := testEstimator(0.5)
	for _, p := range []domain.JobParameters{
		params(1, 0.001, false),
		params(1, 0.001, true),
		params(1<<40, 10000, true),
	} {
		plan := e.Estimate(p)
		assert.GreaterOrEqual(t, plan.EstimatedCores, 1)
		assert.LessOrEqual(t, plan.EstimatedCores, 16)
		assert.GreaterOrEqual(t, plan.EstimatedMemoryMB, int64(256))
		assert.LessOrEqual(t, plan.EstimatedMemoryMB, int64(32768))
	}
}

func TestJitterBounded(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	p := params(1000, 5.0, false)

	unjittered := float64(1000) * float64(100*time.Millisecond) * (1 + 5.0*0.1)
	for _, load := range []float64{0, 0.25, 0.5, 0.75, 1, -3, 42} {
		e := NewWithClock(Config{}, fixedLoad(load), clock)
		d := e.Estimate(p).EstimatedCompletion.Sub(clock.T)
		assert.GreaterOrEqual(t, float64(d), 0.8*unjittered-1)
		assert.LessOrEqual(t, float64(d), 1.2*unjittered+1)
	}
}

func TestFeedbackMovesEstimates(t *testing.T) {
	e, clock := testEstimator(0.5)
	p := params(1000, 0.001, false)
	before := e.Estimate(p).EstimatedCompletion.Sub(clock.T)

	// Jobs consistently finish in a tenth of the predicted time: estimates
	// must drift downwards.
	for i := 0; i < 50; i++ {
		e.UpdateModelWithActualData(p, before/10)
	}
	after := e.Estimate(p).EstimatedCompletion.Sub(clock.T)
	assert.Less(t, after, before)
}

func TestFeedbackIgnoresJunk(t *testing.T) {
	e, _ := testEstimator(0.5)
	p := params(1000, 0.001, false)
	before := e.Estimate(p)
	e.UpdateModelWithActualData(domain.JobParameters{ExpectedEvents: 0}, time.Hour)
	e.UpdateModelWithActualData(p, -time.Hour)
	require.Equal(t, before.EstimatedCompletion, e.Estimate(p).EstimatedCompletion)
}
