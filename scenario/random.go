package scenario

import (
	"fmt"
	"math/rand"

	"github.com/c360/tickfifo/pkg/clock"
	"github.com/c360/tickfifo/pkg/fifo"
)

// RandomInputs returns n reproducible tick inputs. Resets are rare so the
// buffer spends time both full and empty.
func RandomInputs(seed int64, n int) []fifo.Inputs {
	rng := rand.New(rand.NewSource(seed))
	out := make([]fifo.Inputs, n)
	for i := range out {
		out[i] = fifo.Inputs{
			Reset:        rng.Intn(64) == 0,
			WriteRequest: rng.Intn(2) == 0,
			WriteData:    rng.Uint64(),
			ReadRequest:  rng.Intn(2) == 0,
		}
	}
	return out
}

// queue is the reference model: a plain slice with the same acceptance rules.
type queue struct {
	depth int
	items []uint64
	last  uint64
}

func (q *queue) apply(in fifo.Inputs, mask uint64) (wrote, read bool) {
	if in.Reset {
		q.items = q.items[:0]
		q.last = 0
		return false, false
	}
	n := len(q.items)
	if in.WriteRequest && n < q.depth {
		q.items = append(q.items, in.WriteData&mask)
		wrote = true
	}
	if in.ReadRequest && n > 0 {
		q.last = q.items[0]
		q.items = q.items[1:]
		read = true
	}
	return wrote, read
}

// CheckInvariants replays trace against the reference model and reports
// every tick whose outputs disagree with it or break the flag rules.
func CheckInvariants(cfg fifo.Config, trace clock.Trace) []Failure {
	var failures []Failure
	q := &queue{depth: cfg.Depth}
	mask := cfg.Mask()

	for _, r := range trace {
		fail := func(field string, want, got any) {
			failures = append(failures, Failure{
				Tick:  r.Tick,
				Field: field,
				Want:  fmt.Sprint(want),
				Got:   fmt.Sprint(got),
			})
		}

		wrote, read := q.apply(r.Inputs, mask)
		out := r.Outputs

		if out.WriteAccepted != wrote {
			fail("write_accepted", wrote, out.WriteAccepted)
		}
		if out.ReadAccepted != read {
			fail("read_accepted", read, out.ReadAccepted)
		}
		if out.ReadData != q.last {
			fail("data", fmt.Sprintf("%#x", q.last), fmt.Sprintf("%#x", out.ReadData))
		}
		if out.Count != len(q.items) {
			fail("count", len(q.items), out.Count)
		}
		if out.Count < 0 || out.Count > cfg.Depth {
			fail("count_range", fmt.Sprintf("0..%d", cfg.Depth), out.Count)
		}
		if out.Full && out.Empty {
			fail("flags", "not full and empty", "full and empty")
		}
		full, empty := fifo.Flags(out.Count, cfg.Depth)
		if out.Full != full {
			fail("full", full, out.Full)
		}
		if out.Empty != empty {
			fail("empty", empty, out.Empty)
		}
	}
	return failures
}

// RandomScenario wraps RandomInputs in a scenario with no expectations, so a
// Run checks it against the reference model only.
func RandomScenario(seed int64, n int, cfg fifo.Config) *Scenario {
	steps := make([]Step, n)
	for i, in := range RandomInputs(seed, n) {
		steps[i] = Step{
			Op:    OpTick,
			Reset: in.Reset,
			Write: in.WriteRequest,
			Read:  in.ReadRequest,
			Data:  in.WriteData,
		}
	}
	return &Scenario{
		Name:  fmt.Sprintf("random-%d", seed),
		Width: cfg.Width,
		Depth: cfg.Depth,
		Steps: steps,
	}
}
