package scenario

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/clock"
	"github.com/c360/tickfifo/pkg/fifo"
)

func TestBuiltin_AllPass(t *testing.T) {
	all, err := Builtin()
	require.NoError(t, err)

	var names []string
	for _, sc := range all {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{
		"end-to-end",
		"overflow-underflow",
		"reset-priority",
		"simultaneous",
		"wraparound",
	}, names)

	for _, sc := range all {
		t.Run(sc.Name, func(t *testing.T) {
			report, err := Run(context.Background(), sc)
			require.NoError(t, err)
			assert.True(t, report.Passed, "failures: %v", report.Failures)
			assert.Empty(t, report.Failures)
			assert.NotEmpty(t, report.ID)
			assert.Nil(t, report.Trace, "trace is opt-in")
		})
	}
}

func TestRun_EndToEndReport(t *testing.T) {
	sc, err := Lookup("end-to-end")
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, WithTrace(true))
	require.NoError(t, err)

	assert.Equal(t, 10, report.Ticks)
	assert.Equal(t, []uint64{0x11, 0x22, 0x33, 0x44}, report.Trace.ReadOutputs())
	assert.Equal(t, int64(1), report.Stats.Resets)
	assert.Equal(t, int64(4), report.Stats.Writes)
	assert.Equal(t, int64(1), report.Stats.RejectedWrites)
	assert.Equal(t, int64(4), report.Stats.MaxCount)
}

func TestRun_WraparoundIndices(t *testing.T) {
	sc, err := Lookup("wraparound")
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, WithTrace(true))
	require.NoError(t, err)
	require.True(t, report.Passed, "failures: %v", report.Failures)
	assert.Equal(t, []uint64{0x0A, 0x0B, 0x0C, 0x0D, 0x0E}, report.Trace.ReadOutputs())
}

func TestRun_ReportsFailures(t *testing.T) {
	sc, err := Load("testdata/failing.yaml")
	require.NoError(t, err)

	m := metric.NewMetrics()
	report, err := Run(context.Background(), sc, WithMetrics(m))
	require.NoError(t, err, "expectation mismatches are not errors")

	assert.False(t, report.Passed)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, Failure{Step: 2, Tick: 2, Field: "data", Want: "0x2", Got: "0x1"}, report.Failures[0])
	assert.Equal(t, Failure{Step: 2, Tick: 2, Field: "count", Want: "1", Got: "0"}, report.Failures[1])
	assert.Equal(t, "step 2 (tick 2): data: want 0x2, got 0x1", report.Failures[0].String())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScenarioRuns.WithLabelValues("failing", "fail")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal.WithLabelValues("failing")))
}

func TestRun_MaxTicksTruncates(t *testing.T) {
	sc, err := Lookup("end-to-end")
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, WithMaxTicks(3))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Ticks)
	assert.True(t, report.Passed, "expectations past the cut are skipped")
}

func TestRun_Cancelled(t *testing.T) {
	sc, err := Lookup("end-to-end")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, sc)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{Name: "empty"})
	require.Error(t, err)
}

func TestRandomScenario_MatchesModel(t *testing.T) {
	for _, cfg := range []fifo.Config{
		{Width: 8, Depth: 1},
		{Width: 8, Depth: 4},
		{Width: 5, Depth: 6},
		{Width: 64, Depth: 16},
	} {
		for seed := int64(1); seed <= 3; seed++ {
			sc := RandomScenario(seed, 2000, cfg)
			report, err := Run(context.Background(), sc)
			require.NoError(t, err)
			require.True(t, report.Passed, "cfg=%+v seed=%d failures=%v", cfg, seed, report.Failures)
			assert.Equal(t, 2000, report.Ticks)
		}
	}
}

func TestCheckInvariants_DetectsCorruption(t *testing.T) {
	cfg := fifo.DefaultConfig()
	trace := clock.Trace{
		{
			Tick:    1,
			Inputs:  fifo.Inputs{WriteRequest: true, WriteData: 1},
			Outputs: fifo.Outputs{WriteAccepted: true, Count: 1},
		},
		{
			Tick:    2,
			Inputs:  fifo.Inputs{ReadRequest: true},
			Outputs: fifo.Outputs{ReadAccepted: true, ReadData: 9, Empty: true},
		},
	}

	failures := CheckInvariants(cfg, trace)
	require.Len(t, failures, 1)
	assert.Equal(t, "data", failures[0].Field)
	assert.Equal(t, uint64(2), failures[0].Tick)
}

func TestRandomInputs_Reproducible(t *testing.T) {
	assert.Equal(t, RandomInputs(42, 100), RandomInputs(42, 100))
	assert.NotEqual(t, RandomInputs(42, 100), RandomInputs(43, 100))
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("nope")
	require.Error(t, err)
}
