package base

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
)

// loopbackConnector listens on a random local TCP port
type loopbackConnector struct{}

func (c *loopbackConnector) GetName() string { return "loopback" }

func (c *loopbackConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}

func (c *loopbackConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	return nil
}

// echoHandler replies with the request itself
func echoHandler(req common.Frame) common.Frame {
	return req
}

func startTestServer(t *testing.T, handler transport.ServerHandleFunc, connState transport.ConnStateFunc) (transport.IRPCServerTransport, string, <-chan error) {
	t.Helper()

	srv := NewBaseServerTransport(&loopbackConnector{})
	srv.RegisterHandler(handler)
	if connState != nil {
		srv.RegisterConnState(connState)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(listener) }()
	t.Cleanup(func() { srv.Close() })

	return srv, listener.Addr().String(), done
}

func dial(t *testing.T, addr string) *Connection {
	t.Helper()
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	conn := NewConnection(netConn)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeConnection(t *testing.T) {
	a, b := net.Pipe()
	server := NewConnection(a)
	client := NewConnection(b)

	done := make(chan error, 1)
	go func() { done <- ServeConnection(server, echoHandler) }()

	for _, f := range []common.Frame{
		common.NewGetCommand("k").ToFrame(),
		common.NewSimpleFrame("PING"),
		common.NewBulkFrame([]byte("payload")),
	} {
		// one writer at a time, wait for it before the next frame
		errCh := make(chan error, 1)
		go func() { errCh <- client.WriteFrame(f) }()
		got, err := client.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
		if !got.Equal(f) {
			t.Errorf("Expected %s, got %s", f, got)
		}
	}

	client.Close()
	if err := <-done; err != nil {
		t.Errorf("Expected nil on clean close, got %v", err)
	}
}

func TestServerTransportRoundTrip(t *testing.T) {
	_, addr, _ := startTestServer(t, echoHandler, nil)
	conn := dial(t, addr)

	for i := 0; i < 100; i++ {
		f := common.NewSetCommand("key", []byte{byte(i)}).ToFrame()
		if err := conn.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
		got, err := conn.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if !got.Equal(f) {
			t.Fatalf("Expected %s, got %s", f, got)
		}
	}
}

func TestServerTransportMalformedInput(t *testing.T) {
	_, addr, _ := startTestServer(t, echoHandler, nil)

	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	conn := NewConnection(netConn)
	defer conn.Close()

	if _, err := netConn.Write([]byte("?garbage\r\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// protocol error reply, then the server hangs up
	reply, err := conn.ReadFrame()
	if err != nil {
		t.Fatalf("Expected a protocol error reply, got %v", err)
	}
	if reply.Type != common.FrameTError {
		t.Errorf("Expected an error frame, got %s", reply)
	}
	if _, err := conn.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after the protocol error, got %v", err)
	}
}

func TestServerTransportConnState(t *testing.T) {
	var mu sync.Mutex
	states := make(map[transport.ConnState]int)
	changed := make(chan struct{}, 16)

	_, addr, _ := startTestServer(t, echoHandler, func(_ net.Addr, state transport.ConnState, _ error) {
		mu.Lock()
		states[state]++
		mu.Unlock()
		changed <- struct{}{}
	})

	// one clean client
	conn := dial(t, addr)
	conn.Close()

	// one broken client
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	netConn.Write([]byte("*2\r\n$3\r\nget"))
	netConn.Close()

	for i := 0; i < 4; i++ {
		select {
		case <-changed:
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for state change %d", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if states[transport.ConnStateOpened] != 2 || states[transport.ConnStateClosed] != 1 || states[transport.ConnStateFailed] != 1 {
		t.Errorf("Unexpected state counts: %v", states)
	}
}

func TestServerTransportClose(t *testing.T) {
	srv, addr, done := startTestServer(t, echoHandler, nil)
	conn := dial(t, addr)

	// make sure the connection is being served
	if err := conn.WriteFrame(common.NewSimpleFrame("PING")); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := conn.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Serve to return nil after Close, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	// the open connection was closed by the server
	if _, err := conn.ReadFrame(); err == nil {
		t.Error("Expected the connection to be closed")
	}

	// a closed transport cannot be reused
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	if err := srv.Serve(listener); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}
}

// gatedListener hands out a single connection once release is closed.
// Close does not unblock Accept, so a connection can arrive after shutdown.
type gatedListener struct {
	conn      net.Conn
	accepting chan struct{}
	release   chan struct{}
	closed    chan struct{}
	once      sync.Once
	served    bool
}

func (l *gatedListener) Accept() (net.Conn, error) {
	if l.served {
		<-l.closed
		return nil, net.ErrClosed
	}
	close(l.accepting)
	<-l.release
	l.served = true
	return l.conn, nil
}

func (l *gatedListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *gatedListener) Addr() net.Addr { return l.conn.LocalAddr() }

func TestServeDropsConnectionAcceptedDuringClose(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	var handled bool
	srv := NewBaseServerTransport(&loopbackConnector{})
	srv.RegisterHandler(func(req common.Frame) common.Frame {
		handled = true
		return req
	})

	l := &gatedListener{
		conn:      a,
		accepting: make(chan struct{}),
		release:   make(chan struct{}),
		closed:    make(chan struct{}),
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	// Close while Accept is blocked, then let the connection through
	<-l.accepting
	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	close(l.release)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Serve to return nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	// the late connection was closed without being served
	if _, err := b.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("Expected the late connection to be closed, got %v", err)
	}
	if handled {
		t.Error("Expected the late connection not to reach the handler")
	}
}

func TestServeWithoutHandler(t *testing.T) {
	srv := NewBaseServerTransport(&loopbackConnector{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	if err := srv.Serve(listener); err == nil {
		t.Error("Expected an error without a registered handler")
	}
}

func TestClientTransport(t *testing.T) {
	_, addr, _ := startTestServer(t, func(req common.Frame) common.Frame {
		cmd, err := common.CommandFromFrame(req)
		if err != nil {
			return common.NewErrorReply(err)
		}
		return common.NewBulkFrame([]byte(cmd.Key))
	}, nil)

	client := NewBaseClientTransport(&testClientConnector{})
	if _, err := client.Send(context.Background(), common.NewGetCommand("k")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}

	config := common.ClientConfig{Transport: common.ClientTransportConfig{Endpoint: addr}}
	if err := client.Connect(config); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	f, err := client.Send(context.Background(), common.NewGetCommand("hello"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(f.Bulk) != "hello" {
		t.Errorf("Expected bulk hello, got %s", f)
	}
	if client.Metrics().Get("client.round_trip") == nil {
		t.Error("Expected the round trip timer to be registered")
	}
}

// testClientConnector dials TCP without tuning the connection
type testClientConnector struct{}

func (c *testClientConnector) GetName() string { return "loopback" }

func (c *testClientConnector) Connect(config common.ClientConfig) (net.Conn, error) {
	return net.DialTimeout("tcp", config.Transport.Endpoint, DialTimeout(config))
}

func (c *testClientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return nil
}
