// Package scenario is a data-driven testbench for the tick FIFO.
//
// A scenario names a buffer geometry and a list of steps. Each step is one
// operation (reset, write, read, write_read, idle, or an explicit tick),
// optionally repeated, with an optional expect block checked after the
// step's last tick:
//
//	name: end-to-end
//	depth: 4
//	steps:
//	  - op: write
//	    data: 0x11
//	  - op: read
//	    expect: {data: 0x11, empty: true}
//
// Run also replays every trace against a slice-backed reference model, so
// a scenario without expectations still checks FIFO ordering and the flag
// rules. Mismatches are returned as Failures in the Report, not as errors.
package scenario
