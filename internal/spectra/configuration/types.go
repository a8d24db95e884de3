package configuration

import (
	"time"

	"github.com/go-redis/redis"

	"github.com/spectraproject/spectra/internal/spectra/estimator"
)

type SpectraConfig struct {
	MetricsPort uint16

	// Redis backs the durable job store. With no addresses configured the
	// scheduler falls back to the in-memory store.
	Redis redis.UniversalOptions
	Nats  NatsConfig

	Scheduling     SchedulingConfig
	Estimation     estimator.Config
	CircuitBreaker CircuitBreakerConfig
	Retry          RetryConfig
	Recovery       RecoveryConfig
	Auth           AuthConfig
}

type NatsConfig struct {
	// Url of the NATS Streaming server; empty disables event publication.
	Url       string
	ClusterId string
	ClientId  string
	Subject   string
}

type SchedulingConfig struct {
	// Capacity is the admission ledger size: the maximum number of
	// outstanding (queued, paused or running) job slots.
	Capacity            int64
	Workers             int
	PollInterval        time.Duration
	AdmissionCostPerJob int64
	// SimulatedStepDuration drives the built-in executor.
	SimulatedStepDuration time.Duration
}

type CircuitBreakerConfig struct {
	FailureThreshold int
	OpenDuration     time.Duration
}

type RetryConfig struct {
	MaxRetries uint
	BaseDelay  time.Duration
	Multiplier float64
}

type RecoveryConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	ProbeInterval    time.Duration
}

type AuthConfig struct {
	// DefaultRole applies to users without an explicit assignment.
	DefaultRole string
	// UserRoles maps user id to a built-in role name.
	UserRoles map[string]string
}
