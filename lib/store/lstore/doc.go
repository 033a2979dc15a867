// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted
// between process restarts. Entries never expire and are never evicted.
//
// Implementation Details:
//
//   - Sharding: The store is split into a power-of-two number of shards, each
//     a map guarded by its own sync.RWMutex. A key belongs to the shard
//     murmur3(key) & (shards - 1), so operations on keys in different shards never
//     contend and reads of the same shard run in parallel.
//
//   - Copy Semantics: Values are copied on Set and on Get. A caller can never
//     modify a stored value through a slice it passed in or got back.
//
// Thread Safety:
//
//	All operations are thread-safe. Each Set and Get is atomic per key, a Get
//	observes either the previous or the new value of a concurrent Set, never a mix.
//
// Usage Example:
//
//	s, err := lstore.NewLocalStore(0) // 0 = DefaultShardCount()
//	if err != nil {
//	  return err
//	}
//	_ = s.Set("session:123", sessionData)
//	value, exists, err := s.Get("session:123")
package lstore
