package fifo

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/tickfifo/metric"
)

// bufferMetrics holds Prometheus metrics for one buffer.
type bufferMetrics struct {
	writes         prometheus.Counter
	reads          prometheus.Counter
	rejectedWrites prometheus.Counter
	rejectedReads  prometheus.Counter
	resets         prometheus.Counter

	count       prometheus.Gauge
	utilization prometheus.Gauge
}

func newCounter(name, buffer, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   metric.Namespace,
		Subsystem:   "fifo",
		Name:        name,
		ConstLabels: prometheus.Labels{"buffer": buffer},
		Help:        help,
	})
}

func newGauge(name, buffer, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metric.Namespace,
		Subsystem:   "fifo",
		Name:        name,
		ConstLabels: prometheus.Labels{"buffer": buffer},
		Help:        help,
	})
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
func newBufferMetrics(registry metric.MetricsRegistrar, name string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		writes:         newCounter("writes_total", name, "Total number of accepted writes"),
		reads:          newCounter("reads_total", name, "Total number of accepted reads"),
		rejectedWrites: newCounter("rejected_writes_total", name, "Total number of writes rejected while full"),
		rejectedReads:  newCounter("rejected_reads_total", name, "Total number of reads rejected while empty"),
		resets:         newCounter("resets_total", name, "Total number of reset ticks"),
		count:          newGauge("count", name, "Current number of occupied slots"),
		utilization:    newGauge("utilization", name, "Occupied slots as a fraction of depth (0.0 to 1.0)"),
	}

	counters := []struct {
		name string
		c    prometheus.Counter
	}{
		{"fifo_writes", m.writes},
		{"fifo_reads", m.reads},
		{"fifo_rejected_writes", m.rejectedWrites},
		{"fifo_rejected_reads", m.rejectedReads},
		{"fifo_resets", m.resets},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(name, c.name, c.c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(name, "fifo_count", m.count); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "fifo_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

// record mirrors one tick into the Prometheus metrics.
func (m *bufferMetrics) record(in Inputs, out Outputs, depth int) {
	if in.Reset {
		m.resets.Inc()
	} else {
		if out.WriteAccepted {
			m.writes.Inc()
		} else if in.WriteRequest {
			m.rejectedWrites.Inc()
		}
		if out.ReadAccepted {
			m.reads.Inc()
		} else if in.ReadRequest {
			m.rejectedReads.Inc()
		}
	}
	m.count.Set(float64(out.Count))
	m.utilization.Set(float64(out.Count) / float64(depth))
}
