package testing

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/mKV/lib/store"
)

// StoreFactory creates a new, empty store. Cleanup can be registered on t.
type StoreFactory func(t testing.TB) store.IStore

// RunStoreTests runs a comprehensive test suite for a store.IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("CopySemantics", func(t *testing.T) {
			testCopySemantics(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory(t))
		})

		t.Run("ConcurrentDistinctKeys", func(t *testing.T) {
			testConcurrentDistinctKeys(t, factory(t))
		})

		t.Run("ConcurrentSameKey", func(t *testing.T) {
			testConcurrentSameKey(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustSet(t testing.TB, s store.IStore, key string, value []byte) {
	t.Helper()
	if err := s.Set(key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mustGet(t testing.TB, s store.IStore, key string) ([]byte, bool) {
	t.Helper()
	value, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, s, testKey, testValue1)

	result, exists := mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// overwrite
	mustSet(t, s, testKey, testValue2)

	result, exists = mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	result, exists = mustGet(t, s, "nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}
	if result != nil {
		t.Errorf("Expected no value for a nonexistent key, got %q", result)
	}
}

func testCopySemantics(t *testing.T, s store.IStore) {
	testKey := "copy-key"
	value := []byte("original")

	mustSet(t, s, testKey, value)

	// modifying the input after Set must not change the stored value
	value[0] = 'X'
	result, _ := mustGet(t, s, testKey)
	if string(result) != "original" {
		t.Errorf("Set should copy the value, stored value changed to %s", result)
	}

	// modifying a returned value must not change the stored value
	result[0] = 'Y'
	again, _ := mustGet(t, s, testKey)
	if string(again) != "original" {
		t.Errorf("Get should return a copy, stored value changed to %s", again)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	testCases := []struct {
		name  string
		key   string
		value []byte
	}{
		{"EmptyKey", "", []byte("value for empty key")},
		{"EmptyValue", "empty-value-key", []byte{}},
		{"NilValue", "nil-value-key", nil},
		{"CRLFInKey", "line1\r\nline2", []byte("v")},
		{"CRLFInValue", "crlf-value", []byte("a\r\nb\r\n")},
		{"BinaryValue", "binary", []byte{0, 1, 2, 255, '\r', '\n', '$', '*'}},
		{"UnicodeKey", "schlüssel-🔑", []byte("wert")},
		{"LargeKey", string(bytes.Repeat([]byte("k"), 1000)), []byte("value for large key")},
		{"LargeValue", "large-value-key", bytes.Repeat([]byte{1, 2, 3, 4}, 256*1024)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mustSet(t, s, tc.key, tc.value)

			result, exists := mustGet(t, s, tc.key)
			if !exists {
				t.Fatalf("Key %q not found after Set", tc.key)
			}
			if !bytes.Equal(result, tc.value) {
				t.Errorf("Value mismatch: expected %d bytes, got %d bytes", len(tc.value), len(result))
			}
		})
	}
}

func testManyKeys(t *testing.T, s store.IStore) {
	prefix := "many-keys-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		mustSet(t, s, fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := mustGet(t, s, key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}
}

func testConcurrentDistinctKeys(t *testing.T, s store.IStore) {
	numWorkers := 16
	keysPerWorker := 200

	var wg sync.WaitGroup
	var errorCount atomic.Int32
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerId, i)
				if err := s.Set(key, []byte(key)); err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel operations", n)
	}

	// every key must be present with its own value
	for w := 0; w < numWorkers; w++ {
		for i := 0; i < keysPerWorker; i++ {
			key := fmt.Sprintf("worker-%d-key-%d", w, i)
			value, exists := mustGet(t, s, key)
			if !exists || string(value) != key {
				t.Fatalf("Expected %s to hold its own name, got %q (exists=%v)", key, value, exists)
			}
		}
	}
}

func testConcurrentSameKey(t *testing.T, s store.IStore) {
	key := "contended-key"
	numWriters := 8
	writesPerWriter := 200
	valueSize := 1024

	// every writer writes a value consisting of a single repeated byte
	valueOf := func(writer int) []byte {
		return bytes.Repeat([]byte{byte('a' + writer)}, valueSize)
	}

	mustSet(t, s, key, valueOf(0))

	var wg sync.WaitGroup
	var torn atomic.Int32
	stop := make(chan struct{})

	// readers check that a value is never a mix of two writes
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				value, ok, err := s.Get(key)
				if err != nil || !ok || len(value) != valueSize || !bytes.Equal(value, bytes.Repeat(value[:1], valueSize)) {
					torn.Add(1)
					return
				}
			}
		}()
	}

	wg.Add(numWriters)
	for w := 0; w < numWriters; w++ {
		go func(writer int) {
			defer wg.Done()
			for i := 0; i < writesPerWriter; i++ {
				if err := s.Set(key, valueOf(writer)); err != nil {
					torn.Add(1)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	if n := torn.Load(); n > 0 {
		t.Fatalf("Observed %d inconsistent reads or failed writes", n)
	}

	// the final value is one of the written values
	value, _ := mustGet(t, s, key)
	found := false
	for w := 0; w < numWriters; w++ {
		if bytes.Equal(value, valueOf(w)) {
			found = true
		}
	}
	if !found {
		t.Errorf("Final value is not one of the written values")
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		op := "get"
		if i%10 < 7 {
			op = "set"
		}

		// every 5th operation hits one of a few hot keys
		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			valueSize := 64
			if i%10 == 0 {
				valueSize = 1024
			}
			value = make([]byte, valueSize)
			for j := 0; j < valueSize; j++ {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	numWorkers := 8
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var errorCount atomic.Int32
	opsPerWorker := numOperations / numWorkers

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				var err error
				switch op.op {
				case "set":
					err = s.Set(op.key, op.value)
				case "get":
					_, _, err = s.Get(op.key)
				}
				if err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel operations", n)
	}

	// keys that are written exactly once must hold their value
	for i, op := range operations {
		if op.op != "set" || i%5 == 0 {
			continue
		}
		value, exists := mustGet(t, s, op.key)
		if !exists || !bytes.Equal(value, op.value) {
			t.Fatalf("Key %s lost its value", op.key)
		}
	}
}
