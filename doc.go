// Package tickfifo is a tick-stepped FIFO buffer model with a testbench
// around it.
//
// The buffer holds Depth elements of Width bits and advances only when it
// is ticked. Each tick takes reset, write and read requests, decides what
// to accept from the flags at the start of the tick, and commits the whole
// transition at once. Reset wins over everything else in its tick.
//
// # Packages
//
//   - pkg/fifo: the pure Step function, the concurrency-safe Buffer,
//     statistics and per-buffer Prometheus metrics.
//   - pkg/clock: a Driver that ticks a buffer from an input Source, free
//     running or paced, and records a Trace.
//   - scenario: YAML/JSON scenario files with per-step expectations,
//     builtin scenarios, randomized runs checked against a reference queue.
//   - tickport: drives a buffer over NATS, one request per tick.
//   - reportstore: persists scenario reports in badger or a JetStream KV
//     bucket.
//   - natsclient, metric, health, config, errors: connection management,
//     Prometheus registry and HTTP server, health aggregation, JSON config
//     with env overrides, classified errors.
//   - pkg/worker, pkg/retry: a generic worker pool and backoff retries.
//   - cmd/fifosim: the CLI, with run and serve commands.
//
// # Quick Start
//
//	fifosim -trace run                          # builtin scenarios
//	fifosim -random 50 run my.yaml              # plus randomized checks
//	fifosim -config tickfifo.json serve         # FIFO over NATS
//
// A scenario file:
//
//	name: fill-and-drain
//	width: 8
//	depth: 2
//	steps:
//	  - op: reset
//	  - {op: write, data: 0xA1}
//	  - {op: write, data: 0xB2, expect: {full: true}}
//	  - {op: write, data: 0xC3, expect: {write_accepted: false}}
//	  - op: read
//	    expect: {data: 0xA1, count: 1}
package tickfifo
