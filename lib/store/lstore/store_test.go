package lstore

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/ValentinKolb/mKV/lib/store"
	storetesting "github.com/ValentinKolb/mKV/lib/store/testing"
)

func newTestStore(t testing.TB, shards int) store.IStore {
	s, err := NewLocalStore(shards)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func TestLocalStore(t *testing.T) {
	for _, shards := range []int{1, 16, 0} {
		storetesting.RunStoreTests(t, fmt.Sprintf("Shards=%d", shards), func(t testing.TB) store.IStore {
			return newTestStore(t, shards)
		})
	}
}

func BenchmarkLocalStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "lstore", func(b testing.TB) store.IStore {
		return newTestStore(b, 0)
	})
}

func TestInvalidShardCount(t *testing.T) {
	for _, shards := range []int{-1, 3, 6, 100} {
		_, err := NewLocalStore(shards)
		var storeErr *store.Error
		if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidConfig {
			t.Errorf("Expected RetCInvalidConfig for %d shards, got %v", shards, err)
		}
	}
}

func TestDefaultShardCount(t *testing.T) {
	n := DefaultShardCount()
	if n < 4*runtime.NumCPU() {
		t.Errorf("Expected at least %d shards, got %d", 4*runtime.NumCPU(), n)
	}
	if n&(n-1) != 0 {
		t.Errorf("Expected a power of two, got %d", n)
	}
	if n >= 8*runtime.NumCPU() {
		t.Errorf("Expected the smallest power of two, got %d", n)
	}

	info, err := newTestStore(t, 0).GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.ShardCount != n {
		t.Errorf("Expected %d shards, got %d", n, info.ShardCount)
	}
}

func TestGetInfo(t *testing.T) {
	s := newTestStore(t, 8)

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		if err := s.Set(fmt.Sprintf("key-%04d", i), []byte("value")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	// overwrites don't add keys
	if err := s.Set("key-0000", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := s.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.ShardCount != 8 {
		t.Errorf("Expected 8 shards, got %d", info.ShardCount)
	}
	if info.Keys != numKeys {
		t.Errorf("Expected %d keys, got %d", numKeys, info.Keys)
	}
	if want := numKeys*(8+5) - 4; info.SizeBytes != want {
		t.Errorf("Expected %d bytes, got %d", want, info.SizeBytes)
	}
	if info.ShardDistribution.Min == 0 {
		t.Errorf("Expected every shard to hold keys, distribution: %+v", info.ShardDistribution)
	}
}

func TestShardSelectionIsStable(t *testing.T) {
	s := newTestStore(t, 16).(*storeImpl)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		if s.shardFor(key) != s.shardFor(key) {
			t.Fatalf("Key %s maps to different shards", key)
		}
	}
}
