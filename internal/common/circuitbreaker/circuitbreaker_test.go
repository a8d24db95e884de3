package circuitbreaker

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectraproject/spectra/internal/common/util"
)

var errBoom = errors.New("boom")

func failing() error    { return errBoom }
func succeeding() error { return nil }

func TestOpensExactlyAtThreshold(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 3, time.Minute, clock)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Execute(failing), errBoom)
		assert.False(t, b.IsOpen(), "must stay closed below threshold")
	}

	assert.ErrorIs(t, b.Execute(failing), errBoom)
	assert.True(t, b.IsOpen(), "must open exactly at threshold")
}

func TestFailsFastWhileOpen(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 1, time.Minute, clock)

	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.True(t, b.IsOpen())

	invoked := false
	err := b.Execute(func() error {
		invoked = true
		return nil
	})
	var open *ErrOpen
	require.ErrorAs(t, err, &open)
	assert.Equal(t, "store", open.Name)
	assert.False(t, invoked, "operation must not be invoked while open")
}

func TestSuccessResetsFailureCount(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 3, time.Minute, clock)

	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.NoError(t, b.Execute(succeeding))
	assert.Equal(t, 0, b.FailureCount())

	// Two more failures must not open the breaker: the streak restarted.
	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.ErrorIs(t, b.Execute(failing), errBoom)
	assert.False(t, b.IsOpen())
}

func TestSuccessfulProbeClosesBreaker(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 1, time.Minute, clock)

	require.ErrorIs(t, b.Execute(failing), errBoom)
	require.True(t, b.IsOpen())

	clock.Advance(time.Minute + time.Second)
	require.NoError(t, b.Execute(succeeding))
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0, b.FailureCount())
}

func TestFailedProbeKeepsBreakerOpen(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 1, time.Minute, clock)

	require.ErrorIs(t, b.Execute(failing), errBoom)
	clock.Advance(time.Minute + time.Second)

	// The probe itself fails: breaker stays open and the cooldown restarts.
	require.ErrorIs(t, b.Execute(failing), errBoom)
	assert.True(t, b.IsOpen())

	clock.Advance(30 * time.Second)
	var open *ErrOpen
	require.ErrorAs(t, b.Execute(succeeding), &open)
}

func TestConcurrentFailuresOpenOnce(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	b := NewWithClock("store", 50, time.Minute, clock)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				_ = b.Execute(failing)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.True(t, b.IsOpen())
}
