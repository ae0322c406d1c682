package clock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/fifo"
)

// Ticker is anything that advances by one tick per call. *fifo.Buffer
// satisfies it.
type Ticker interface {
	Tick(fifo.Inputs) fifo.Outputs
}

// Source supplies the inputs for each tick. Next is called with the 1-based
// tick number and returns false once the source is exhausted.
type Source interface {
	Next(tick uint64) (fifo.Inputs, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(tick uint64) (fifo.Inputs, bool)

// Next implements Source.
func (f SourceFunc) Next(tick uint64) (fifo.Inputs, bool) {
	return f(tick)
}

// FromSlice returns a Source that replays inputs once, in order.
func FromSlice(inputs []fifo.Inputs) Source {
	return SourceFunc(func(tick uint64) (fifo.Inputs, bool) {
		if tick == 0 || tick > uint64(len(inputs)) {
			return fifo.Inputs{}, false
		}
		return inputs[tick-1], true
	})
}

// Record is one driven tick.
type Record struct {
	Tick    uint64       `json:"tick"`
	Inputs  fifo.Inputs  `json:"inputs"`
	Outputs fifo.Outputs `json:"outputs"`
}

// Trace is the ordered list of records produced by a run.
type Trace []Record

// ReadOutputs returns the data of every accepted read, in order.
func (t Trace) ReadOutputs() []uint64 {
	var out []uint64
	for _, r := range t {
		if r.Outputs.ReadAccepted {
			out = append(out, r.Outputs.ReadData)
		}
	}
	return out
}

// Last returns the final record, or false for an empty trace.
func (t Trace) Last() (Record, bool) {
	if len(t) == 0 {
		return Record{}, false
	}
	return t[len(t)-1], true
}

// Driver clocks a Ticker from a Source.
type Driver struct {
	target   Ticker
	limiter  *rate.Limiter
	observer func(Record)
	maxTicks uint64
	metrics  *metric.Metrics
	name     string
	tick     uint64
}

// Option configures a Driver.
type Option func(*Driver)

// WithRate paces the driver at hz ticks per second. Zero or negative means
// free-running.
func WithRate(hz float64) Option {
	return func(d *Driver) {
		if hz > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(hz), 1)
		}
	}
}

// WithObserver sets a function called after every tick.
func WithObserver(fn func(Record)) Option {
	return func(d *Driver) {
		d.observer = fn
	}
}

// MaxTicks bounds a single Run. Zero means unbounded.
func MaxTicks(n uint64) Option {
	return func(d *Driver) {
		d.maxTicks = n
	}
}

// WithMetrics records tick counts and durations under the given buffer name.
func WithMetrics(m *metric.Metrics, name string) Option {
	return func(d *Driver) {
		d.metrics = m
		d.name = name
	}
}

// New creates a driver for target.
func New(target Ticker, opts ...Option) *Driver {
	d := &Driver{target: target, name: "default"}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Step applies a single tick and returns its record.
func (d *Driver) Step(in fifo.Inputs) Record {
	start := time.Now()
	out := d.target.Tick(in)
	if d.metrics != nil {
		d.metrics.RecordTick(d.name, time.Since(start))
	}

	d.tick++
	r := Record{Tick: d.tick, Inputs: in, Outputs: out}
	if d.observer != nil {
		d.observer(r)
	}
	return r
}

// Ticks returns the number of ticks this driver has applied.
func (d *Driver) Ticks() uint64 {
	return d.tick
}

// Run drives ticks until src is exhausted, MaxTicks is reached, or ctx is
// done. A tick in progress always completes; cancellation is observed
// between ticks and returned with the partial trace.
func (d *Driver) Run(ctx context.Context, src Source) (Trace, error) {
	var trace Trace
	for n := uint64(1); d.maxTicks == 0 || n <= d.maxTicks; n++ {
		if err := ctx.Err(); err != nil {
			return trace, errors.WrapTransient(err, "Driver", "Run", "context check")
		}

		in, ok := src.Next(n)
		if !ok {
			return trace, nil
		}

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				if ctx.Err() == nil {
					// The next tick would land after the deadline.
					err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
				}
				return trace, errors.WrapTransient(err, "Driver", "Run", "rate wait")
			}
		}

		trace = append(trace, d.Step(in))
	}
	return trace, nil
}
