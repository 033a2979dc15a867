package testing

import (
	"fmt"
	"sync/atomic"
	"testing"
)

// RunStoreBenchmarks runs all benchmarks for a store.IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory)
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, factory)
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Parallel benchmarking for Set operation
func benchmarkSet(b *testing.B, factory StoreFactory) {
	s := factory(b)
	value := []byte("benchmark-value")
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter.Add(1))
			if err := s.Set(key, value); err != nil {
				b.Errorf("Set failed: %v", err)
				return
			}
		}
	})
}

// Parallel benchmarking for Set with 16KB values
func benchmarkSetLargeValue(b *testing.B, factory StoreFactory) {
	s := factory(b)
	value := make([]byte, 16*1024)
	var counter atomic.Int64

	b.SetBytes(int64(len(value)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter.Add(1)%1000)
			if err := s.Set(key, value); err != nil {
				b.Errorf("Set failed: %v", err)
				return
			}
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, factory StoreFactory) {
	s := factory(b)

	// Prepare data
	numKeys := 10000
	for i := 0; i < numKeys; i++ {
		if err := s.Set(fmt.Sprintf("test-key-%d", i), []byte(fmt.Sprintf("test-value-%d", i))); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if _, _, err := s.Get(fmt.Sprintf("test-key-%d", counter%numKeys)); err != nil {
				b.Errorf("Get failed: %v", err)
				return
			}
			counter++
		}
	})
}

// Benchmark for mixed usage patterns (80% reads)
func benchmarkMixedUsage(b *testing.B, factory StoreFactory) {
	s := factory(b)

	numKeys := 10000
	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		if err := s.Set(keys[i], []byte(fmt.Sprintf("test-value-%d", i))); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0
		for pb.Next() {
			key := keys[int(counter.Add(1))%numKeys]

			var err error
			if localCounter%5 == 0 {
				err = s.Set(key, []byte(fmt.Sprintf("mixed-value-%d", localCounter)))
			} else {
				_, _, err = s.Get(key)
			}
			if err != nil {
				b.Errorf("Operation failed: %v", err)
				return
			}
			localCounter++
		}
	})
}
