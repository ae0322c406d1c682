package fifo

import (
	"fmt"
	"math/rand"
	"testing"
)

// BenchmarkBufferTick measures a mixed workload across depths, including
// non-power-of-two depths that take the modulo path.
func BenchmarkBufferTick(b *testing.B) {
	for _, depth := range []int{4, 5, 64, 100, 1024} {
		b.Run(fmt.Sprintf("Depth_%d", depth), func(b *testing.B) {
			buf, err := New(Config{Width: 32, Depth: depth})
			if err != nil {
				b.Fatal(err)
			}

			rng := rand.New(rand.NewSource(1))
			inputs := make([]Inputs, 1024)
			for i := range inputs {
				inputs[i] = Inputs{
					WriteRequest: rng.Intn(2) == 0,
					WriteData:    rng.Uint64(),
					ReadRequest:  rng.Intn(2) == 0,
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Tick(inputs[i&1023])
			}
		})
	}
}

// BenchmarkBufferTickParallel measures lock contention with many callers.
func BenchmarkBufferTickParallel(b *testing.B) {
	buf, err := New(Config{Width: 16, Depth: 16})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			buf.WriteRead(uint64(i))
			i++
		}
	})
}

// BenchmarkStep measures the pure form, which clones the slots every call.
func BenchmarkStep(b *testing.B) {
	cfg := Config{Width: 8, Depth: 16}
	s := NewState(cfg)
	in := Inputs{WriteRequest: true, WriteData: 0x5A, ReadRequest: true}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, _ = Step(cfg, s, in)
	}
}
