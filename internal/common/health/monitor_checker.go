package health

import (
	"github.com/pkg/errors"

	"github.com/spectraproject/spectra/internal/common/healthmonitor"
)

// MonitorChecker adapts a HealthMonitor to the Checker interface so
// recovery-gated collaborators surface on the health endpoint.
type MonitorChecker struct {
	monitor healthmonitor.HealthMonitor
}

func NewMonitorChecker(monitor healthmonitor.HealthMonitor) *MonitorChecker {
	return &MonitorChecker{monitor: monitor}
}

func (c *MonitorChecker) Check() error {
	healthy, reason := c.monitor.IsHealthy()
	if !healthy {
		return errors.Errorf("unhealthy: %s", reason)
	}
	return nil
}
