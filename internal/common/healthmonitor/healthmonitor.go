package healthmonitor

// HealthMonitor represents a health checker.
type HealthMonitor interface {
	// IsHealthy performs a health check, returning the result and a reason
	// (empty if healthy). It never mutates the monitor's state.
	IsHealthy() (ok bool, reason string)
}

// Health check failure reason indicating the failure threshold was exceeded.
const FailureThresholdExceededReason string = "failureThresholdExceeded"
