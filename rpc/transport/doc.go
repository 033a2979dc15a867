// Package transport defines the interfaces and abstractions for RPC communication
// in mKV. It provides a common contract that all transport implementations
// must fulfill, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Frame based request handling, one reply per request
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and sending commands.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     accepts connections and passes every request frame to the registered handler.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
//   - ConnStateFunc: Optional callback to observe accepted, closed and failed connections.
package transport
