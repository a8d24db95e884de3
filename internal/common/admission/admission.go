// Package admission bounds the total outstanding load the scheduler will
// accept. Excess work is shed with an explicit capacity-exceeded rejection
// instead of queuing without bound.
package admission

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
)

// Controller is the admission ledger. The invariant 0 <= currentLoad <=
// capacity holds at every observable instant; admit and release are atomic.
type Controller struct {
	capacity int64

	mu          sync.Mutex
	currentLoad int64

	loadDesc     *prometheus.Desc
	capacityDesc *prometheus.Desc
}

func NewController(capacity int64) *Controller {
	if capacity <= 0 {
		capacity = 1
	}
	return &Controller{
		capacity: capacity,
		loadDesc: prometheus.NewDesc(
			"spectra_admission_current_load",
			"Load currently admitted by the admission controller",
			nil, nil,
		),
		capacityDesc: prometheus.NewDesc(
			"spectra_admission_capacity",
			"Configured admission capacity",
			nil, nil,
		),
	}
}

// TryAdmit reserves cost units of capacity. It returns ErrCapacityExceeded,
// leaving the ledger unchanged, if the reservation would exceed capacity.
func (c *Controller) TryAdmit(cost int64) error {
	if cost <= 0 {
		return &spectraerrors.ErrInvalidArgument{Name: "cost", Value: cost, Message: "admission cost must be positive"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentLoad+cost > c.capacity {
		return &spectraerrors.ErrCapacityExceeded{
			CurrentLoad: c.currentLoad,
			Capacity:    c.capacity,
			Cost:        cost,
		}
	}
	c.currentLoad += cost
	return nil
}

// Release returns cost units of capacity to the ledger.
func (c *Controller) Release(cost int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentLoad -= cost
	if c.currentLoad < 0 {
		log.Errorf("admission ledger released more than was admitted (load %d); clamping to 0", c.currentLoad)
		c.currentLoad = 0
	}
}

func (c *Controller) CurrentLoad() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLoad
}

func (c *Controller) Capacity() int64 {
	return c.capacity
}

// Utilisation returns currentLoad / capacity in [0, 1]. The estimator uses
// it as the load-variance signal for its jitter factor.
func (c *Controller) Utilisation() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.currentLoad) / float64(c.capacity)
}

func (c *Controller) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.loadDesc
	ch <- c.capacityDesc
}

func (c *Controller) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.loadDesc, prometheus.GaugeValue, float64(c.CurrentLoad()))
	ch <- prometheus.MustNewConstMetric(c.capacityDesc, prometheus.GaugeValue, float64(c.capacity))
}
