// Package circuitbreaker guards calls to unreliable dependencies. After a
// configured number of consecutive failures the breaker opens and callers
// fail fast until a cooldown has elapsed, at which point a single call is
// let through as a probe.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spectraproject/spectra/internal/common/util"
)

// ErrOpen is returned without invoking the wrapped operation while the
// breaker is open.
type ErrOpen struct {
	Name    string
	RetryIn time.Duration
}

func (err *ErrOpen) Error() string {
	return fmt.Sprintf("circuit breaker %q is open; retry in %s", err.Name, err.RetryIn)
}

type Breaker struct {
	name             string
	failureThreshold int
	openDuration     time.Duration
	clock            util.Clock

	mu           sync.Mutex
	failureCount int
	open         bool
	probing      bool
	lastFailure  time.Time
}

func New(name string, failureThreshold int, openDuration time.Duration) *Breaker {
	return NewWithClock(name, failureThreshold, openDuration, &util.DefaultClock{})
}

func NewWithClock(name string, failureThreshold int, openDuration time.Duration, clock util.Clock) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		clock:            clock,
	}
}

// Execute runs op unless the breaker is open and still within its cooldown,
// in which case it returns ErrOpen immediately. The first call after the
// cooldown elapses is a probe: success closes the breaker and resets its
// counters, failure keeps it open and restarts the cooldown. While a probe
// is in flight, concurrent callers keep failing fast.
func (b *Breaker) Execute(op func() error) error {
	b.mu.Lock()
	if b.open {
		elapsed := b.clock.Now().Sub(b.lastFailure)
		if elapsed < b.openDuration || b.probing {
			retryIn := b.openDuration - elapsed
			if retryIn < 0 {
				retryIn = 0
			}
			b.mu.Unlock()
			return &ErrOpen{Name: b.name, RetryIn: retryIn}
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := op()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err != nil {
		b.failureCount++
		b.lastFailure = b.clock.Now()
		if !b.open && b.failureCount >= b.failureThreshold {
			b.open = true
			log.Warnf("circuit breaker %q opened after %d consecutive failures", b.name, b.failureCount)
		}
		return err
	}
	if b.open {
		log.Infof("circuit breaker %q closed after successful probe", b.name)
	}
	b.open = false
	b.failureCount = 0
	return nil
}

// IsOpen reports the current state without mutating it.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
