package lstore

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spaolacci/murmur3"
)

var Logger = logger.GetLogger("store")

// shard is one independently locked part of the store
type shard struct {
	mu   sync.RWMutex
	data map[string][]byte
}

type storeImpl struct {
	shards []*shard
	mask   uint64 // len(shards) - 1
}

// NewLocalStore creates a new in-memory store split into shardCount shards.
// shardCount must be a power of two, 0 selects DefaultShardCount().
func NewLocalStore(shardCount int) (store.IStore, error) {
	if shardCount == 0 {
		shardCount = DefaultShardCount()
	}
	if shardCount < 0 || bits.OnesCount(uint(shardCount)) != 1 {
		return nil, store.NewError(store.RetCInvalidConfig, fmt.Sprintf("shard count must be a power of two, got %d", shardCount))
	}

	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{data: make(map[string][]byte)}
	}

	Logger.Debugf("Created local store with %d shards", shardCount)

	return &storeImpl{
		shards: shards,
		mask:   uint64(shardCount - 1),
	}, nil
}

// DefaultShardCount returns the smallest power of two >= 4 * NumCPU
func DefaultShardCount() int {
	n := 4 * runtime.NumCPU()
	return 1 << bits.Len(uint(n-1))
}

// shardFor maps a key to its shard
//
// Thread-safety: This method is thread-safe, the shard slice is never modified.
func (s *storeImpl) shardFor(key string) *shard {
	return s.shards[murmur3.Sum64([]byte(key))&s.mask]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	// copy outside the lock
	v := make([]byte, len(value))
	copy(v, value)

	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.data[key] = v
	sh.mu.Unlock()
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[key]
	if !ok {
		sh.mu.RUnlock()
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	sh.mu.RUnlock()
	return out, true, nil
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	info := store.Info{ShardCount: len(s.shards)}
	shardSizes := make([]float64, len(s.shards))

	// shards are inspected one after another, the result is not a consistent snapshot
	for i, sh := range s.shards {
		sh.mu.RLock()
		shardSizes[i] = float64(len(sh.data))
		info.Keys += len(sh.data)
		for k, v := range sh.data {
			info.SizeBytes += len(k) + len(v)
		}
		sh.mu.RUnlock()
	}

	info.ShardDistribution = store.NewDistributionStats(shardSizes)
	return info, nil
}
