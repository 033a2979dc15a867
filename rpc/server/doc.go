// Package server implements the mKV RPC server.
// It owns the shared sharded store, interprets request frames as commands and
// executes them through an adapter, and exposes Prometheus metrics.
//
// Key Components:
//
//   - RPCServer: Creates the store from the ServerConfig, registers its handler with a
//     transport.IRPCServerTransport and serves until Close is called.
//
//   - IRPCServerAdapter: Executes a decoded common.Command against a store.IStore and
//     returns the reply frame (OK, value, null or error).
//
//   - RunConnection: The request loop for a single connection. It reads a frame,
//     interprets it, executes it and writes the reply until the peer disconnects.
//     Unknown commands are answered with an error frame and the loop continues,
//     malformed input ends it.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards:          16,
//	  TimeoutSecond:   5,
//	  MetricsEndpoint: "127.0.0.1:9100",
//	  Transport: common.ServerTransportConfig{
//	    Endpoint: "0.0.0.0:6666",
//	  },
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	All connections share one store. Each connection is served by its own goroutine
//	and handles its requests strictly in order.
package server
