package fifo

import (
	"sync"

	"github.com/c360/tickfifo/errors"
)

// Buffer is a concurrency-safe FIFO advanced one tick at a time.
//
// Each Tick is one atomic transition: the next state is evaluated against the
// tick-start state and committed before the lock is released, so observers
// never see a write without its matching count update.
type Buffer struct {
	mu      sync.RWMutex
	cfg     Config
	state   State
	ticks   uint64
	stats   *Statistics    // always present
	metrics *bufferMetrics // optional
	opts    *bufferOptions
}

// New creates an empty buffer. It fails with an Invalid error when cfg
// cannot back a buffer, or with the registry's error when metrics
// registration fails.
func New(cfg Config, options ...Option) (*Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Buffer", "New", "validate config")
	}

	opts := applyOptions(options...)

	var metrics *bufferMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "Buffer", "New", "metrics registration")
		}
	}

	return &Buffer{
		cfg:     cfg,
		state:   NewState(cfg),
		stats:   NewStatistics(),
		metrics: metrics,
		opts:    opts,
	}, nil
}

// Tick applies one clock tick and returns the outputs after it.
func (b *Buffer) Tick(in Inputs) Outputs {
	b.mu.Lock()
	t := evaluate(b.cfg, &b.state, in)
	t.commit(&b.state)
	b.ticks++
	tick := b.ticks

	b.stats.record(in, t.out)
	if b.metrics != nil {
		b.metrics.record(in, t.out, b.cfg.Depth)
	}
	b.mu.Unlock()

	if in.Reset {
		b.opts.logger.Debug("fifo reset", "tick", tick)
		return t.out
	}

	if in.WriteRequest && !t.out.WriteAccepted {
		b.drop(Drop{Kind: Overflow, Tick: tick, Data: in.WriteData & b.cfg.Mask()})
	}
	if in.ReadRequest && !t.out.ReadAccepted {
		b.drop(Drop{Kind: Underflow, Tick: tick})
	}

	return t.out
}

func (b *Buffer) drop(d Drop) {
	b.opts.logger.Debug("fifo request rejected", "kind", d.Kind.String(), "tick", d.Tick)
	if b.opts.dropCallback != nil {
		b.opts.dropCallback(d)
	}
}

// Reset applies a reset tick.
func (b *Buffer) Reset() Outputs {
	return b.Tick(Inputs{Reset: true})
}

// Write applies a tick requesting a write of v.
func (b *Buffer) Write(v uint64) Outputs {
	return b.Tick(Inputs{WriteRequest: true, WriteData: v})
}

// Read applies a tick requesting a read.
func (b *Buffer) Read() Outputs {
	return b.Tick(Inputs{ReadRequest: true})
}

// WriteRead applies a tick requesting both a write of v and a read.
func (b *Buffer) WriteRead(v uint64) Outputs {
	return b.Tick(Inputs{WriteRequest: true, WriteData: v, ReadRequest: true})
}

// Idle applies a tick with no requests.
func (b *Buffer) Idle() Outputs {
	return b.Tick(Inputs{})
}

// Snapshot returns a deep copy of the current state.
func (b *Buffer) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Clone()
}

// Peek returns the value the next accepted read would emit, without ticking.
func (b *Buffer) Peek() (uint64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state.Count == 0 {
		return 0, false
	}
	return b.state.Slots[b.state.ReadIndex], true
}

// Count returns the number of occupied slots.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Count
}

// Full reports whether every slot is occupied.
func (b *Buffer) Full() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Count == b.cfg.Depth
}

// Empty reports whether no slot is occupied.
func (b *Buffer) Empty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Count == 0
}

// ReadData returns the registered output, the value of the last accepted read.
func (b *Buffer) ReadData() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.LastOutput
}

// Ticks returns the number of ticks applied so far.
func (b *Buffer) Ticks() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ticks
}

// Config returns the buffer geometry.
func (b *Buffer) Config() Config {
	return b.cfg // immutable
}

// Stats returns the buffer statistics.
func (b *Buffer) Stats() *Statistics {
	return b.stats
}
