// Package testing provides a reusable test and benchmark suite for store.IStore
// implementations. Every implementation (the local store as well as the RPC
// client talking to a server) is expected to pass RunStoreTests.
//
// Usage:
//
//	func TestLocalStore(t *testing.T) {
//	  storetesting.RunStoreTests(t, "lstore", func(t testing.TB) store.IStore {
//	    s, _ := lstore.NewLocalStore(16)
//	    return s
//	  })
//	}
package testing
