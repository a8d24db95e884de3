package healthmonitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/common/util"
)

// RecoveringMonitor tracks the health of a single resource and gates
// automatic recovery behind a timeout. After failureThreshold consecutive
// failures the resource is considered unhealthy; callers then fail fast
// until recoveryTimeout has elapsed since the last failure, after which the
// next call through Execute (or an explicit Probe) is attempted against the
// resource again. A success flips the resource back to healthy and resets
// the failure counter.
//
// It implements prometheus.Collector so health state is observable.
type RecoveringMonitor struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	clock            util.Clock

	mu               sync.Mutex
	healthy          bool
	failureCount     int
	lastFailure      time.Time
	recoveryAttempts int

	healthyDesc          *prometheus.Desc
	failureCountDesc     *prometheus.Desc
	recoveryAttemptsDesc *prometheus.Desc
}

func NewRecoveringMonitor(name string, failureThreshold int, recoveryTimeout time.Duration) *RecoveringMonitor {
	return NewRecoveringMonitorWithClock(name, failureThreshold, recoveryTimeout, &util.DefaultClock{})
}

func NewRecoveringMonitorWithClock(name string, failureThreshold int, recoveryTimeout time.Duration, clock util.Clock) *RecoveringMonitor {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	labels := prometheus.Labels{"resource": name}
	return &RecoveringMonitor{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		clock:            clock,
		healthy:          true,
		healthyDesc: prometheus.NewDesc(
			"spectra_resource_healthy",
			"Whether the monitored resource is considered healthy (1) or not (0)",
			nil, labels,
		),
		failureCountDesc: prometheus.NewDesc(
			"spectra_resource_failure_count",
			"Consecutive failures observed for the monitored resource",
			nil, labels,
		),
		recoveryAttemptsDesc: prometheus.NewDesc(
			"spectra_resource_recovery_attempts_total",
			"Recovery probes attempted for the monitored resource",
			nil, labels,
		),
	}
}

// IsHealthy reports the current state without mutating it.
func (m *RecoveringMonitor) IsHealthy() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.healthy {
		return true, ""
	}
	return false, FailureThresholdExceededReason
}

// RecoveryAttempts returns how many recovery probes have been attempted.
func (m *RecoveringMonitor) RecoveryAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recoveryAttempts
}

// Execute calls op through the monitor. While the resource is unhealthy and
// the recovery timeout has not elapsed, ErrUnhealthy is returned immediately
// without invoking op. Once the timeout has elapsed, the call doubles as a
// recovery probe. Outcomes of op feed the failure counter either way.
func (m *RecoveringMonitor) Execute(op func() error) error {
	m.mu.Lock()
	if !m.healthy {
		elapsed := m.clock.Now().Sub(m.lastFailure)
		if elapsed < m.recoveryTimeout {
			retryIn := m.recoveryTimeout - elapsed
			m.mu.Unlock()
			return &spectraerrors.ErrUnhealthy{Name: m.name, RetryIn: retryIn}
		}
		m.recoveryAttempts++
		log.Infof("attempting recovery probe %d for resource %q", m.recoveryAttempts, m.name)
	}
	m.mu.Unlock()

	err := op()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.recordFailure()
		return err
	}
	if !m.healthy {
		log.Infof("resource %q recovered after %d probes", m.name, m.recoveryAttempts)
	}
	m.healthy = true
	m.failureCount = 0
	return nil
}

// Probe runs an explicit health probe against the resource. It is a no-op
// returning nil while the resource is healthy, and returns ErrUnhealthy
// without probing if the recovery timeout has not yet elapsed. Every probe
// actually attempted increments the recovery attempt counter regardless of
// outcome.
func (m *RecoveringMonitor) Probe(probe func() error) error {
	m.mu.Lock()
	if m.healthy {
		m.mu.Unlock()
		return nil
	}
	elapsed := m.clock.Now().Sub(m.lastFailure)
	if elapsed < m.recoveryTimeout {
		retryIn := m.recoveryTimeout - elapsed
		m.mu.Unlock()
		return &spectraerrors.ErrUnhealthy{Name: m.name, RetryIn: retryIn}
	}
	m.recoveryAttempts++
	m.mu.Unlock()

	err := probe()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastFailure = m.clock.Now()
		return err
	}
	m.healthy = true
	m.failureCount = 0
	return nil
}

// ReportFailure records a failure observed outside Execute, e.g., by a
// component talking to the resource directly.
func (m *RecoveringMonitor) ReportFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordFailure()
}

// ReportSuccess records an out-of-band success, resetting failure state.
func (m *RecoveringMonitor) ReportSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = true
	m.failureCount = 0
}

// recordFailure must be called with m.mu held.
func (m *RecoveringMonitor) recordFailure() {
	m.failureCount++
	m.lastFailure = m.clock.Now()
	if m.healthy && m.failureCount >= m.failureThreshold {
		m.healthy = false
		log.Warnf("resource %q marked unhealthy after %d consecutive failures", m.name, m.failureCount)
	}
}

func (m *RecoveringMonitor) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.healthyDesc
	ch <- m.failureCountDesc
	ch <- m.recoveryAttemptsDesc
}

func (m *RecoveringMonitor) Collect(ch chan<- prometheus.Metric) {
	m.mu.Lock()
	healthy := 0.0
	if m.healthy {
		healthy = 1.0
	}
	failureCount := float64(m.failureCount)
	recoveryAttempts := float64(m.recoveryAttempts)
	m.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(m.healthyDesc, prometheus.GaugeValue, healthy)
	ch <- prometheus.MustNewConstMetric(m.failureCountDesc, prometheus.GaugeValue, failureCount)
	ch <- prometheus.MustNewConstMetric(m.recoveryAttemptsDesc, prometheus.CounterValue, recoveryAttempts)
}
