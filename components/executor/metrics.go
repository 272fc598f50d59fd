package executor

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
)

const (
	kindOnce     = "once"
	kindPeriodic = "periodic"
)

// metrics is a no-op until the prometheus component is running.
type metrics struct {
	submittedTotal *prom.CounterVec
	failedTotal    *prom.CounterVec
	rejectedTotal  *prom.CounterVec
}

func newMetrics() *metrics {
	c := prometheus.C()
	if c == nil {
		return &metrics{}
	}
	labels := []string{"kind"}
	return &metrics{
		submittedTotal: c.NewCounter("executor_tasks_submitted_total", "Tasks accepted by the background executor.", labels),
		failedTotal:    c.NewCounter("executor_tasks_failed_total", "Tasks that returned an error or panicked.", labels),
		rejectedTotal:  c.NewCounter("executor_tasks_rejected_total", "Tasks rejected because the executor was not running or its queue was full.", labels),
	}
}

func (m *metrics) submitted(kind string) {
	if m.submittedTotal != nil {
		m.submittedTotal.WithLabelValues(kind).Inc()
	}
}

func (m *metrics) failed(kind string) {
	if m.failedTotal != nil {
		m.failedTotal.WithLabelValues(kind).Inc()
	}
}

func (m *metrics) rejected(kind string) {
	if m.rejectedTotal != nil {
		m.rejectedTotal.WithLabelValues(kind).Inc()
	}
}
