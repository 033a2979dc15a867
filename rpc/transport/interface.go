package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/mKV/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer for every frame read from a connection.
// The returned frame is written back before the next request of that connection is read.
type ServerHandleFunc func(req common.Frame) (resp common.Frame)

// ConnState describes a point in the lifetime of a server side connection
type ConnState uint8

const (
	ConnStateOpened ConnState = iota // connection accepted
	ConnStateClosed                  // peer closed the connection cleanly
	ConnStateFailed                  // connection dropped because of an error
)

// ConnStateFunc is called by a server transport whenever a connection changes its state.
// err is only set for ConnStateFailed.
type ConnStateFunc func(remote net.Addr, state ConnState, err error)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// RegisterConnState registers an optional callback for connection state changes
	RegisterConnState(fn ConnStateFunc)
	// Listen creates a listener from the config and serves it until Close is called
	Listen(config common.ServerConfig) error
	// Serve accepts connections on an existing listener until Close is called
	Serve(listener net.Listener) error
	// Close stops accepting connections and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a command to the server and returns the reply frame
	// It is safe to call Send from multiple goroutines
	Send(ctx context.Context, cmd common.Command) (resp common.Frame, err error)
	// Close closes the transport connection
	// Requests still pending fail with an error
	Close() error
	// Metrics returns the client side latency and error metrics
	Metrics() gometrics.Registry
}
