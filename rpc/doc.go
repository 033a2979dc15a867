// Package rpc provides the network layer of the mKV key-value store.
// It connects clients and the server over persistent connections that carry
// RESP-like frames.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including the
//     Frame and Command types, configuration structures, and logging.
//
//   - serializer: The frame codec. It checks whether a buffer holds a complete frame,
//     parses it, and encodes frames back into bytes.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets). The base package holds the buffered Connection, the
//     server accept loop and the client Multiplexor.
//
//   - client: A store.IStore implementation that forwards every call to a server.
//
//   - server: The RPC server that owns the shared store and answers commands.
package rpc
