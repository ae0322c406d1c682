package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/clock"
	"github.com/c360/tickfifo/pkg/fifo"
)

// Failure is one expectation that did not hold.
type Failure struct {
	Step  int    `json:"step"`
	Tick  uint64 `json:"tick"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

func (f Failure) String() string {
	if f.Step == 0 {
		return fmt.Sprintf("tick %d: %s: want %s, got %s", f.Tick, f.Field, f.Want, f.Got)
	}
	return fmt.Sprintf("step %d (tick %d): %s: want %s, got %s", f.Step, f.Tick, f.Field, f.Want, f.Got)
}

// Report is the outcome of one scenario run.
type Report struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Config   fifo.Config       `json:"config"`
	Ticks    int               `json:"ticks"`
	Passed   bool              `json:"passed"`
	Failures []Failure         `json:"failures,omitempty"`
	Stats    fifo.StatsSummary `json:"stats"`
	Trace    clock.Trace       `json:"trace,omitempty"`
}

type runOptions struct {
	logger   *slog.Logger
	metrics  *metric.Metrics
	rateHz   float64
	maxTicks uint64
	trace    bool
}

// RunOption configures Run.
type RunOption func(*runOptions)

// WithLogger sets the logger for the run and its buffer.
func WithLogger(logger *slog.Logger) RunOption {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records scenario results and driven ticks.
func WithMetrics(m *metric.Metrics) RunOption {
	return func(o *runOptions) {
		o.metrics = m
	}
}

// WithRate paces the run at hz ticks per second.
func WithRate(hz float64) RunOption {
	return func(o *runOptions) {
		o.rateHz = hz
	}
}

// WithMaxTicks stops the run after n ticks. Zero means no limit.
func WithMaxTicks(n uint64) RunOption {
	return func(o *runOptions) {
		o.maxTicks = n
	}
}

// WithTrace keeps the full trace in the report.
func WithTrace(keep bool) RunOption {
	return func(o *runOptions) {
		o.trace = keep
	}
}

// Run drives a fresh buffer through sc and checks every expectation along
// with the buffer invariants. A mismatch is reported in the Report; the
// error is reserved for scenarios that cannot run or a cancelled context.
func Run(ctx context.Context, sc *Scenario, opts ...RunOption) (*Report, error) {
	o := &runOptions{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	inputs, err := sc.Inputs()
	if err != nil {
		return nil, err
	}

	cfg := sc.Config()
	buf, err := fifo.New(cfg, fifo.WithLogger(o.logger))
	if err != nil {
		return nil, errors.Wrap(err, "Scenario", "Run", "create buffer")
	}

	driver := clock.New(buf,
		clock.WithRate(o.rateHz),
		clock.MaxTicks(o.maxTicks),
		clock.WithMetrics(o.metrics, sc.Name),
	)

	trace, err := driver.Run(ctx, clock.FromSlice(inputs))
	if err != nil {
		return nil, errors.Wrap(err, "Scenario", "Run", fmt.Sprintf("drive %q", sc.Name))
	}

	report := &Report{
		ID:     uuid.NewString(),
		Name:   sc.Name,
		Config: cfg,
		Ticks:  len(trace),
		Stats:  buf.Stats().Summary(),
	}
	report.Failures = append(report.Failures, checkExpectations(sc, trace)...)
	report.Failures = append(report.Failures, CheckInvariants(cfg, trace)...)
	report.Passed = len(report.Failures) == 0
	if o.trace {
		report.Trace = trace
	}

	if o.metrics != nil {
		o.metrics.RecordScenario(sc.Name, report.Passed)
	}

	o.logger.Debug("scenario finished",
		"scenario", sc.Name,
		"id", report.ID,
		"ticks", report.Ticks,
		"passed", report.Passed,
		"failures", len(report.Failures))

	return report, nil
}

// checkExpectations compares each step's expect block with the record of
// that step's final tick. Steps beyond a truncated trace are skipped.
func checkExpectations(sc *Scenario, trace clock.Trace) []Failure {
	var failures []Failure
	end := 0
	for i, step := range sc.Steps {
		end += step.ticks()
		if step.Expect == nil || end > len(trace) {
			continue
		}
		r := trace[end-1]
		failures = append(failures, compare(i+1, r, step.Expect)...)
	}
	return failures
}

func compare(step int, r clock.Record, e *Expect) []Failure {
	var failures []Failure
	fail := func(field string, want, got any) {
		failures = append(failures, Failure{
			Step:  step,
			Tick:  r.Tick,
			Field: field,
			Want:  fmt.Sprint(want),
			Got:   fmt.Sprint(got),
		})
	}

	out := r.Outputs
	if e.Data != nil && *e.Data != out.ReadData {
		fail("data", fmt.Sprintf("%#x", *e.Data), fmt.Sprintf("%#x", out.ReadData))
	}
	if e.Count != nil && *e.Count != out.Count {
		fail("count", *e.Count, out.Count)
	}
	if e.Full != nil && *e.Full != out.Full {
		fail("full", *e.Full, out.Full)
	}
	if e.Empty != nil && *e.Empty != out.Empty {
		fail("empty", *e.Empty, out.Empty)
	}
	if e.WriteAccepted != nil && *e.WriteAccepted != out.WriteAccepted {
		fail("write_accepted", *e.WriteAccepted, out.WriteAccepted)
	}
	if e.ReadAccepted != nil && *e.ReadAccepted != out.ReadAccepted {
		fail("read_accepted", *e.ReadAccepted, out.ReadAccepted)
	}
	return failures
}
