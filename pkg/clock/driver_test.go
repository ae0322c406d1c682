package clock

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/fifo"
)

func writes(vs ...uint64) []fifo.Inputs {
	in := make([]fifo.Inputs, len(vs))
	for i, v := range vs {
		in[i] = fifo.Inputs{WriteRequest: true, WriteData: v}
	}
	return in
}

func reads(n int) []fifo.Inputs {
	in := make([]fifo.Inputs, n)
	for i := range in {
		in[i] = fifo.Inputs{ReadRequest: true}
	}
	return in
}

func newBuffer(t *testing.T) *fifo.Buffer {
	t.Helper()
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	return buf
}

func TestRun_ReplaysSource(t *testing.T) {
	buf := newBuffer(t)
	inputs := append(writes(0x11, 0x22, 0x33), reads(3)...)

	var seen []uint64
	d := New(buf, WithObserver(func(r Record) { seen = append(seen, r.Tick) }))

	trace, err := d.Run(context.Background(), FromSlice(inputs))
	require.NoError(t, err)

	assert.Len(t, trace, 6)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6}, seen)
	assert.Equal(t, []uint64{0x11, 0x22, 0x33}, trace.ReadOutputs())

	last, ok := trace.Last()
	require.True(t, ok)
	assert.True(t, last.Outputs.Empty)
	assert.Equal(t, uint64(6), d.Ticks())
	assert.Equal(t, uint64(6), buf.Ticks())
}

func TestRun_MaxTicks(t *testing.T) {
	buf := newBuffer(t)
	idle := SourceFunc(func(uint64) (fifo.Inputs, bool) { return fifo.Inputs{}, true })

	trace, err := New(buf, MaxTicks(10)).Run(context.Background(), idle)
	require.NoError(t, err)
	assert.Len(t, trace, 10)
}

func TestRun_Cancelled(t *testing.T) {
	buf := newBuffer(t)
	ctx, cancel := context.WithCancel(context.Background())

	src := SourceFunc(func(tick uint64) (fifo.Inputs, bool) {
		if tick == 4 {
			cancel()
		}
		return fifo.Inputs{WriteRequest: true, WriteData: tick}, true
	})

	trace, err := New(buf).Run(ctx, src)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, trace, 4, "the tick that observed cancellation still completes")
	assert.Equal(t, 4, buf.Count())
}

func TestRun_RateLimited(t *testing.T) {
	buf := newBuffer(t)

	start := time.Now()
	trace, err := New(buf, WithRate(200)).Run(context.Background(), FromSlice(reads(5)))
	require.NoError(t, err)
	assert.Len(t, trace, 5)
	// Burst of 1 means four waits of 5ms after the first tick.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestRun_RateWaitPastDeadline(t *testing.T) {
	buf := newBuffer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// At 2 Hz the second tick is 500ms out, past the deadline.
	trace, err := New(buf, WithRate(2)).Run(ctx, FromSlice(reads(5)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.IsTransient(err))
	assert.Len(t, trace, 1)
}

func TestStep_Metrics(t *testing.T) {
	m := metric.NewMetrics()
	buf := newBuffer(t)
	d := New(buf, WithMetrics(m, "rx"))

	d.Step(fifo.Inputs{WriteRequest: true, WriteData: 1})
	d.Step(fifo.Inputs{ReadRequest: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal.WithLabelValues("rx")))
}

func TestTrace_Empty(t *testing.T) {
	var trace Trace
	_, ok := trace.Last()
	assert.False(t, ok)
	assert.Empty(t, trace.ReadOutputs())
}

func TestFromSlice_Bounds(t *testing.T) {
	src := FromSlice(writes(7))
	_, ok := src.Next(0)
	assert.False(t, ok)
	in, ok := src.Next(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), in.WriteData)
	_, ok = src.Next(2)
	assert.False(t, ok)
}
