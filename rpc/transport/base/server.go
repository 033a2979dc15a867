package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrServerClosed is returned by Listen and Serve after Close was called
var ErrServerClosed = errors.New("server transport closed")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	connState transport.ConnStateFunc
	config    common.ServerConfig

	mu       sync.Mutex // protects listener
	listener net.Listener
	closed   atomic.Bool

	// live connections, closed on shutdown
	conns      *xsync.MapOf[uint64, *Connection]
	nextConnID atomic.Uint64
	wg         sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport.
// Every accepted connection is served by its own goroutine.
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[uint64, *Connection](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) RegisterConnState(fn transport.ConnStateFunc) {
	t.connState = fn
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	return t.Serve(listener)
}

func (t *serverTransport) Serve(listener net.Listener) error {
	if t.handler == nil {
		listener.Close()
		return fmt.Errorf("no handler registered")
	}

	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	t.listener = listener
	t.mu.Unlock()

	// Accept connections
	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() {
				return nil
			}

			// Back off on temporary errors like running out of file descriptors
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if backoff == 0 {
					backoff = 5 * time.Millisecond
				} else if backoff < time.Second {
					backoff *= 2
				}
				Logger.Warningf("Accept error: %v; retrying in %v", err, backoff)
				time.Sleep(backoff)
				continue
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}
		backoff = 0

		// Close sets closed under mu before it waits, so no Add can race with Wait
		t.mu.Lock()
		if t.closed.Load() {
			t.mu.Unlock()
			conn.Close()
			return nil
		}
		t.wg.Add(1)
		t.mu.Unlock()

		// Handle the connection in a goroutine
		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	if t.closed.Swap(true) {
		t.mu.Unlock()
		return nil
	}
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.mu.Unlock()

	// Unblock all connection goroutines
	t.conns.Range(func(_ uint64, conn *Connection) bool {
		conn.Close()
		return true
	})
	t.wg.Wait()

	Logger.Infof("Stopped %s server", t.connector.GetName())
	return err
}

// --------------------------------------------------------------------------
// Connection Loop
// --------------------------------------------------------------------------

// ServeConnection runs the request loop of one connection:
// read a frame, let the handler build the reply, write the reply, repeat.
// Requests are never pipelined, the next frame is read only after the reply was written.
// It returns nil if the peer closed the connection cleanly and the cause otherwise.
// A malformed request is answered with a protocol error before the loop stops.
func ServeConnection(conn *Connection, handler transport.ServerHandleFunc) error {
	for {
		req, err := conn.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if errors.Is(err, serializer.ErrMalformed) {
				// best effort, the connection is dropped anyway
				_ = conn.WriteFrame(common.NewErrorReply(fmt.Errorf("ERR Protocol error: %v", err)))
			}
			return err
		}

		if err := conn.WriteFrame(handler(req)); err != nil {
			return err
		}
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection serves one accepted connection until it is closed
func (t *serverTransport) handleConnection(netConn net.Conn) {
	defer t.wg.Done()

	remote := netConn.RemoteAddr()

	if err := t.connector.UpgradeConnection(netConn, t.config); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", remote, err)
	}

	conn := NewConnection(netConn)
	conn.SetTimeout(timeoutFromSeconds(t.config.TimeoutSecond))
	defer conn.Close()

	// Register the connection so Close can reach it
	id := t.nextConnID.Add(1)
	t.conns.Store(id, conn)
	defer t.conns.Delete(id)
	if t.closed.Load() {
		return
	}

	Logger.Debugf("Accepted connection from %s", remote)
	t.notify(remote, transport.ConnStateOpened, nil)

	err := ServeConnection(conn, t.handler)

	switch {
	case err == nil:
		Logger.Debugf("Connection closed by client %s", remote)
		t.notify(remote, transport.ConnStateClosed, nil)
	case t.closed.Load():
		// connection was closed by the shutdown
		t.notify(remote, transport.ConnStateClosed, nil)
	default:
		Logger.Errorf("Closing connection from %s: %v", remote, err)
		t.notify(remote, transport.ConnStateFailed, err)
	}
}

func (t *serverTransport) notify(remote net.Addr, state transport.ConnState, err error) {
	if t.connState != nil {
		t.connState(remote, state, err)
	}
}
