// Package store provides the interface for the key-value storage of mKV
// together with unified error handling.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Structured errors with return codes
//   - Statistics describing how evenly keys are spread over shards
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. The server executes commands against it and the RPC client
//     implements it remotely, so both can be tested with the same suite
//     (see the testing sub package).
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages.
//
// Implementations:
//
//	- Local Store (lstore): An in-memory store split into independently locked
//	  shards. A key is mapped to its shard by hash, so operations on keys of
//	  different shards never block each other.
//	  Available in the "github.com/ValentinKolb/mKV/lib/store/lstore" package.
//
//	- Remote Store (rpc/client): Implements IStore by sending commands to a server.
//	  Available in the "github.com/ValentinKolb/mKV/rpc/client" package.
package store
