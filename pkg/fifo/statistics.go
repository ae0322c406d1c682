package fifo

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks what a buffer accepted and rejected. It is always on.
type Statistics struct {
	ticks          int64
	resets         int64
	writes         int64
	reads          int64
	rejectedWrites int64
	rejectedReads  int64
	simultaneous   int64

	// Protected by mutex
	mu           sync.RWMutex
	startTime    time.Time
	currentCount int64
	maxCount     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// record folds the outcome of one tick into the counters.
func (s *Statistics) record(in Inputs, out Outputs) {
	atomic.AddInt64(&s.ticks, 1)

	if in.Reset {
		atomic.AddInt64(&s.resets, 1)
	} else {
		switch {
		case out.WriteAccepted:
			atomic.AddInt64(&s.writes, 1)
		case in.WriteRequest:
			atomic.AddInt64(&s.rejectedWrites, 1)
		}
		switch {
		case out.ReadAccepted:
			atomic.AddInt64(&s.reads, 1)
		case in.ReadRequest:
			atomic.AddInt64(&s.rejectedReads, 1)
		}
		if out.WriteAccepted && out.ReadAccepted {
			atomic.AddInt64(&s.simultaneous, 1)
		}
	}

	s.UpdateCount(int64(out.Count))
}

// UpdateCount records the current occupancy and the high-water mark.
func (s *Statistics) UpdateCount(count int64) {
	s.mu.Lock()
	s.currentCount = count
	if count > s.maxCount {
		s.maxCount = count
	}
	s.mu.Unlock()
}

// Ticks returns the number of ticks applied.
func (s *Statistics) Ticks() int64 {
	return atomic.LoadInt64(&s.ticks)
}

// Resets returns the number of reset ticks.
func (s *Statistics) Resets() int64 {
	return atomic.LoadInt64(&s.resets)
}

// Writes returns the number of accepted writes.
func (s *Statistics) Writes() int64 {
	return atomic.LoadInt64(&s.writes)
}

// Reads returns the number of accepted reads.
func (s *Statistics) Reads() int64 {
	return atomic.LoadInt64(&s.reads)
}

// RejectedWrites returns the number of writes attempted while full.
func (s *Statistics) RejectedWrites() int64 {
	return atomic.LoadInt64(&s.rejectedWrites)
}

// RejectedReads returns the number of reads attempted while empty.
func (s *Statistics) RejectedReads() int64 {
	return atomic.LoadInt64(&s.rejectedReads)
}

// Simultaneous returns the number of ticks that accepted both a write and a read.
func (s *Statistics) Simultaneous() int64 {
	return atomic.LoadInt64(&s.simultaneous)
}

// CurrentCount returns the occupancy after the last tick.
func (s *Statistics) CurrentCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentCount
}

// MaxCount returns the highest occupancy seen.
func (s *Statistics) MaxCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxCount
}

// RejectRate returns the fraction of requests (writes and reads) that were
// rejected, 0.0 to 1.0.
func (s *Statistics) RejectRate() float64 {
	rejected := s.RejectedWrites() + s.RejectedReads()
	total := s.Writes() + s.Reads() + rejected
	if total == 0 {
		return 0.0
	}
	return float64(rejected) / float64(total)
}

// Utilization returns the current occupancy as a fraction of depth.
func (s *Statistics) Utilization(depth int64) float64 {
	if depth == 0 {
		return 0.0
	}
	return float64(s.CurrentCount()) / float64(depth)
}

// Uptime returns how long the statistics have been collected.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset zeroes every counter. It is unrelated to a buffer reset tick.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.ticks, 0)
	atomic.StoreInt64(&s.resets, 0)
	atomic.StoreInt64(&s.writes, 0)
	atomic.StoreInt64(&s.reads, 0)
	atomic.StoreInt64(&s.rejectedWrites, 0)
	atomic.StoreInt64(&s.rejectedReads, 0)
	atomic.StoreInt64(&s.simultaneous, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentCount = 0
	s.maxCount = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	Ticks          int64         `json:"ticks"`
	Resets         int64         `json:"resets"`
	Writes         int64         `json:"writes"`
	Reads          int64         `json:"reads"`
	RejectedWrites int64         `json:"rejected_writes"`
	RejectedReads  int64         `json:"rejected_reads"`
	Simultaneous   int64         `json:"simultaneous"`
	CurrentCount   int64         `json:"current_count"`
	MaxCount       int64         `json:"max_count"`
	RejectRate     float64       `json:"reject_rate"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Ticks:          s.Ticks(),
		Resets:         s.Resets(),
		Writes:         s.Writes(),
		Reads:          s.Reads(),
		RejectedWrites: s.RejectedWrites(),
		RejectedReads:  s.RejectedReads(),
		Simultaneous:   s.Simultaneous(),
		CurrentCount:   s.CurrentCount(),
		MaxCount:       s.MaxCount(),
		RejectRate:     s.RejectRate(),
		Uptime:         s.Uptime(),
	}
}
