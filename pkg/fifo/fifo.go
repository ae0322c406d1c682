package fifo

import (
	"fmt"

	"github.com/c360/tickfifo/errors"
)

// Default parameters used when a Config field is left at zero by DefaultConfig.
const (
	DefaultWidth = 8
	DefaultDepth = 4

	// MaxWidth is the widest element a slot can carry.
	MaxWidth = 64
)

// Config fixes the geometry of a buffer for its whole lifetime.
type Config struct {
	// Width is the number of bits per element, 1..64.
	Width int `json:"width" yaml:"width"`
	// Depth is the number of slots. Any positive value is accepted; powers of
	// two advance indices with a mask instead of a modulo.
	Depth int `json:"depth" yaml:"depth"`
}

// DefaultConfig returns an 8-bit wide, 4-deep configuration.
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Depth: DefaultDepth}
}

// Validate reports whether the configuration can back a buffer.
func (c Config) Validate() error {
	if c.Depth <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("depth must be positive, got %d", c.Depth))
	}
	if c.Width < 1 || c.Width > MaxWidth {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("width must be in [1, %d], got %d", MaxWidth, c.Width))
	}
	return nil
}

// Mask returns the bit mask selecting Width low-order bits.
func (c Config) Mask() uint64 {
	if c.Width >= MaxWidth {
		return ^uint64(0)
	}
	return (uint64(1) << uint(c.Width)) - 1
}

func (c Config) powerOfTwo() bool {
	return c.Depth > 0 && c.Depth&(c.Depth-1) == 0
}

// advance returns the index following i, wrapping to 0 after Depth-1.
func (c Config) advance(i int) int {
	if c.powerOfTwo() {
		return (i + 1) & (c.Depth - 1)
	}
	i++
	if i == c.Depth {
		return 0
	}
	return i
}

// State is the registered state of a buffer between two ticks.
//
// Count alone decides full and empty. WriteIndex == ReadIndex holds both when
// the buffer is empty and when it is full, so the indices are never compared.
type State struct {
	Slots      []uint64 `json:"slots"`
	WriteIndex int      `json:"write_index"`
	ReadIndex  int      `json:"read_index"`
	Count      int      `json:"count"`
	LastOutput uint64   `json:"last_output"`
}

// NewState returns the all-empty state for cfg.
func NewState(cfg Config) State {
	return State{Slots: make([]uint64, cfg.Depth)}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Slots = make([]uint64, len(s.Slots))
	copy(c.Slots, s.Slots)
	return c
}

// Inputs are the signals sampled at one tick.
type Inputs struct {
	Reset        bool   `json:"reset,omitempty" yaml:"reset,omitempty"`
	WriteRequest bool   `json:"write,omitempty" yaml:"write,omitempty"`
	WriteData    uint64 `json:"data,omitempty" yaml:"data,omitempty"`
	ReadRequest  bool   `json:"read,omitempty" yaml:"read,omitempty"`
}

// Outputs are the signals visible after a tick. ReadData is registered: it
// only changes when a read is accepted or the buffer is reset.
type Outputs struct {
	ReadData      uint64 `json:"read_data"`
	Full          bool   `json:"full"`
	Empty         bool   `json:"empty"`
	Count         int    `json:"count"`
	WriteAccepted bool   `json:"write_accepted"`
	ReadAccepted  bool   `json:"read_accepted"`
}

// Flags derives the full and empty signals from an occupancy count.
func Flags(count, depth int) (full, empty bool) {
	return count == depth, count == 0
}

// transition is the next-state value computed from the pre-tick state. It is
// applied to storage only by commit.
type transition struct {
	reset      bool
	writeSlot  int
	writeData  uint64
	writeIndex int
	readIndex  int
	count      int
	lastOutput uint64
	out        Outputs
}

// evaluate computes the transition for one tick without touching s.
func evaluate(cfg Config, s *State, in Inputs) transition {
	if in.Reset {
		return transition{
			reset:     true,
			writeSlot: -1,
			out:       Outputs{Empty: true},
		}
	}

	full, empty := Flags(s.Count, cfg.Depth)

	t := transition{
		writeSlot:  -1,
		writeIndex: s.WriteIndex,
		readIndex:  s.ReadIndex,
		count:      s.Count,
		lastOutput: s.LastOutput,
	}

	// Both accept decisions use the tick-start flags.
	if in.WriteRequest && !full {
		t.writeSlot = s.WriteIndex
		t.writeData = in.WriteData & cfg.Mask()
		t.writeIndex = cfg.advance(s.WriteIndex)
		t.count++
		t.out.WriteAccepted = true
	}

	if in.ReadRequest && !empty {
		t.lastOutput = s.Slots[s.ReadIndex]
		t.readIndex = cfg.advance(s.ReadIndex)
		t.count--
		t.out.ReadAccepted = true
	}

	t.out.ReadData = t.lastOutput
	t.out.Count = t.count
	t.out.Full, t.out.Empty = Flags(t.count, cfg.Depth)
	return t
}

// commit publishes the transition into s.
func (t transition) commit(s *State) {
	if t.reset {
		clear(s.Slots)
		s.WriteIndex = 0
		s.ReadIndex = 0
		s.Count = 0
		s.LastOutput = 0
		return
	}

	if t.writeSlot >= 0 {
		s.Slots[t.writeSlot] = t.writeData
	}
	s.WriteIndex = t.writeIndex
	s.ReadIndex = t.readIndex
	s.Count = t.count
	s.LastOutput = t.lastOutput
}

// Step applies one tick to s and returns the next state and the outputs.
// It is pure: s, including its slots, is left untouched. cfg must be valid
// and s must have cfg.Depth slots.
func Step(cfg Config, s State, in Inputs) (State, Outputs) {
	t := evaluate(cfg, &s, in)
	next := s.Clone()
	t.commit(&next)
	return next, t.out
}
