// Package metric provides Prometheus-based metrics collection and an HTTP
// server for tickfifo.
//
// # Architecture
//
// The package has three layers:
//
//  1. Core Metrics: process-level metrics registered automatically (Metrics type):
//     ticks driven and tick latency per buffer, scenario runs by result, tick
//     port message counts, errors, NATS connection state.
//  2. Registrar: extensible registration for component metrics (MetricsRegistrar);
//     each FIFO registers its own counters and gauges through it.
//  3. HTTP Server: /metrics in Prometheus/OpenMetrics format and /health (Server).
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	buf, err := fifo.New(fifo.DefaultConfig(), fifo.WithMetrics(registry, "main"))
//
//	server := metric.NewServer(9090, "/metrics", registry, nil)
//	go func() {
//	    if err := server.Start(); err != nil {
//	        slog.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop()
//
// # Registration Rules
//
// Metrics are keyed as "service.metric". Registering the same key twice, or a
// collector whose fully-qualified name already exists in the Prometheus
// registry, returns an error classified as Invalid. Any other Prometheus
// registration failure is Fatal.
//
// # Thread Safety
//
// MetricsRegistry is safe for concurrent use. Prometheus collectors are
// themselves concurrency-safe.
package metric
