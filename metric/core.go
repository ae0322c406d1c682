package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by this repository.
const Namespace = "tickfifo"

// Metrics contains the process-level metrics shared by every buffer, driver
// and port. Per-buffer counters live with the buffer itself.
type Metrics struct {
	TicksTotal    *prometheus.CounterVec
	TickDuration  *prometheus.HistogramVec
	ScenarioRuns  *prometheus.CounterVec
	PortMessages  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	NATSConnected prometheus.Gauge
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "clock",
				Name:      "ticks_total",
				Help:      "Total number of ticks driven",
			},
			[]string{"buffer"},
		),

		// Ticks are sub-microsecond; the histogram starts well below DefBuckets.
		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "clock",
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent applying one tick",
				Buckets:   prometheus.ExponentialBuckets(1e-8, 4, 10),
			},
			[]string{"buffer"},
		),

		ScenarioRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "scenario",
				Name:      "runs_total",
				Help:      "Total number of scenario runs by result",
			},
			[]string{"scenario", "result"},
		),

		PortMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "port",
				Name:      "messages_total",
				Help:      "Tick port messages by direction (in, out, invalid)",
			},
			[]string{"direction"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.TicksTotal,
		c.TickDuration,
		c.ScenarioRuns,
		c.PortMessages,
		c.ErrorsTotal,
		c.NATSConnected,
	}
}

// RecordTick counts one tick for a buffer and observes how long it took
func (c *Metrics) RecordTick(buffer string, duration time.Duration) {
	c.TicksTotal.WithLabelValues(buffer).Inc()
	c.TickDuration.WithLabelValues(buffer).Observe(duration.Seconds())
}

// RecordScenario counts a finished scenario run
func (c *Metrics) RecordScenario(scenario string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	c.ScenarioRuns.WithLabelValues(scenario, result).Inc()
}

// RecordPortMessage counts a tick port message
func (c *Metrics) RecordPortMessage(direction string) {
	c.PortMessages.WithLabelValues(direction).Inc()
}

// RecordError increments error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}
