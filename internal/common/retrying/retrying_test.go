package retrying

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func TestSucceedsFirstAttemptWithoutDelay(t *testing.T) {
	e := New(3, time.Millisecond, 2)
	var delays []time.Duration
	e.RecordDelay = func(d time.Duration) { delays = append(delays, d) }

	attempts := 0
	err := e.Do(context.Background(), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetriesUntilSuccess(t *testing.T) {
	e := New(5, time.Microsecond, 2)

	attempts := 0
	err := e.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExhaustionSurfacesLastError(t *testing.T) {
	e := New(2, time.Microsecond, 2)

	attempts := 0
	errFinal := errors.New("final failure")
	err := e.Do(context.Background(), func() error {
		attempts++
		if attempts == 3 {
			return errFinal
		}
		return errTransient
	})
	assert.Equal(t, 3, attempts, "maxRetries=2 allows 3 attempts total")
	assert.ErrorIs(t, err, errFinal)
}

func TestExactExponentialDelays(t *testing.T) {
	base := 2 * time.Microsecond
	e := New(4, base, 3)
	var delays []time.Duration
	e.RecordDelay = func(d time.Duration) { delays = append(delays, d) }

	attempts := 0
	err := e.Do(context.Background(), func() error {
		attempts++
		return errTransient
	})
	require.Error(t, err)
	require.Equal(t, 5, attempts)

	// attempts - 1 delays, each exactly base * multiplier^i.
	require.Len(t, delays, attempts-1)
	expected := []time.Duration{
		base,
		base * 3,
		base * 9,
		base * 27,
	}
	assert.Equal(t, expected, delays)
}

func TestZeroRetriesMeansSingleAttempt(t *testing.T) {
	e := New(0, time.Second, 2)
	var delays []time.Duration
	e.RecordDelay = func(d time.Duration) { delays = append(delays, d) }

	attempts := 0
	err := e.Do(context.Background(), func() error {
		attempts++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays, "no delay after the final attempt")
}

func TestContextCancellationStopsRetrying(t *testing.T) {
	e := New(10, 50*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := e.Do(ctx, func() error {
		attempts++
		return errTransient
	})
	require.Error(t, err)
	assert.Less(t, attempts, 11)
}
