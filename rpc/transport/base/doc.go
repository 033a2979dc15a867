// Package base provides the foundation for transport layers in mKV,
// implementing the frame based connection handling independent of the specific
// network protocol (TCP, Unix sockets, etc.). It serves as a base layer that can be
// extended with protocol-specific connectors.
//
// The package focuses on:
//   - Buffered frame I/O on a byte stream (Connection)
//   - The server accept loop and the per-connection request loop
//   - Sharing one client connection between many goroutines (Multiplexor)
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - Connection: Owns a growable read buffer. ReadFrame reads until the codec reports a
//     complete frame, so partial reads are handled transparently. A peer closing the
//     stream between frames yields io.EOF, closing it inside a frame ErrConnectionReset.
//
//   - ServeConnection: The strictly sequential request loop of the server
//     (read request, handle, write reply). A malformed request ends the loop.
//
//   - serverTransport: Accepts connections and runs ServeConnection for each of them in
//     its own goroutine. Live connections are tracked so Close can shut them down.
//
//   - Multiplexor: Bounded queue (default 32) in front of one connection. A single
//     worker writes queued commands in order and reads exactly one reply for each, which is
//     delivered through a one-slot channel. The first connection error fails every
//     pending request, there is no reconnect.
//
//   - clientTransport: Dials one connection per Connect and wraps it in a Multiplexor.
//
// Thread Safety:
//
//	A Connection is used by one goroutine at a time. The server transport, the
//	Multiplexor and the client transport are safe for concurrent use.
package base
