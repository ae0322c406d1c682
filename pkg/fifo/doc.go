// Package fifo implements a fixed-depth, single-clock-domain FIFO that is
// advanced in discrete ticks, with always-on statistics and optional
// Prometheus metrics.
//
// # Overview
//
// A producer and a consumer share one timebase. On every tick the caller
// presents reset, write-request, write-data and read-request; the buffer
// decides what to accept from the flags at the start of the tick and then
// commits the whole transition at once.
//
// # Quick Start
//
//	buf, err := fifo.New(fifo.Config{Width: 8, Depth: 4})
//	if err != nil {
//		return err // depth <= 0 or width outside 1..64
//	}
//
//	buf.Reset()
//	buf.Write(0x11)
//	buf.Write(0x22)
//
//	out := buf.Read()
//	// out.ReadData == 0x11, out.Count == 1
//
// The pure form is useful in tests and reference models:
//
//	cfg := fifo.DefaultConfig()
//	next, out := fifo.Step(cfg, fifo.NewState(cfg), fifo.Inputs{WriteRequest: true, WriteData: 7})
//
// # Tick Semantics
//
// Priority and acceptance, evaluated against the tick-start state:
//
//   - Reset clears count, both indices and the registered output; it
//     overrides any write or read requested in the same tick.
//   - A write is accepted when not full. Data is truncated to Width bits,
//     stored at the write index, and the index advances modulo Depth.
//   - A read is accepted when not empty. The slot at the read index becomes
//     the registered output and the index advances modulo Depth.
//   - A write and a read in the same tick are judged independently, so with
//     0 < count < Depth both succeed and count is unchanged. When full only
//     the read succeeds; when empty only the write does.
//   - Rejected requests are dropped silently. They show up in Statistics,
//     in Prometheus metrics and in the drop callback, never as errors.
//
// Full and empty come from the occupancy count alone. The write and read
// indices are equal both when the buffer is empty and when it is full, so
// they are never compared to derive a flag.
//
// # Observability
//
// Statistics are always collected (accepted and rejected requests, resets,
// simultaneous ticks, occupancy high-water mark). WithMetrics additionally
// exports tickfifo_fifo_* series labelled with the buffer name.
//
//	buf, err := fifo.New(cfg,
//		fifo.WithMetrics(registry, "uart_rx"),
//		fifo.WithDropCallback(func(d fifo.Drop) {
//			slog.Warn("fifo drop", "kind", d.Kind, "tick", d.Tick)
//		}),
//	)
//
// # Thread Safety
//
// Buffer is safe for concurrent use. Tick holds the write lock for the whole
// transition; observers (Count, Full, Snapshot, ...) take the read lock.
// Concurrent callers are serialized, each call being exactly one tick. The
// drop callback runs after the lock is released.
package fifo
