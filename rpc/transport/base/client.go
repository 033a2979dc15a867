package base

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	// DefaultQueueSize is the capacity of the submission queue if none is configured
	DefaultQueueSize = 32
)

var (
	// ErrClientClosed is returned for requests that were pending when the client was closed
	ErrClientClosed = errors.New("client closed")
	// ErrNotConnected is returned when sending on a transport without a connection
	ErrNotConnected = errors.New("client transport is not connected")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect dials config.Transport.Endpoint, giving up after DialTimeout(config)
	Connect(config common.ClientConfig) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Multiplexor
// -----------------------------------------------------------

// reply is the outcome of one request
type reply struct {
	frame common.Frame
	err   error
}

// request is a queued command with its one-shot reply slot
type request struct {
	cmd      common.Command
	replyCh  chan reply // capacity 1
	enqueued time.Time
}

// deliver never blocks, if nobody waits for the reply it is dropped with the channel
func (r *request) deliver(res reply) {
	select {
	case r.replyCh <- res:
	default:
	}
}

// PendingReply is the handle to the reply of a submitted command
type PendingReply struct {
	ch <-chan reply
	m  *Multiplexor
}

// Wait blocks until the reply arrived, the multiplexor failed or ctx is done.
// Abandoning a PendingReply is safe, the worker never blocks on it.
func (p *PendingReply) Wait(ctx context.Context) (common.Frame, error) {
	select {
	case r := <-p.ch:
		return r.frame, r.err
	case <-p.m.done:
		// the reply may have been delivered right before the failure
		select {
		case r := <-p.ch:
			return r.frame, r.err
		default:
			return common.Frame{}, p.m.Err()
		}
	case <-ctx.Done():
		return common.Frame{}, ctx.Err()
	}
}

// Multiplexor lets many goroutines share one connection.
// Commands are queued and a single worker goroutine writes them one at a time,
// reads exactly one reply for each and hands it to the submitter.
// Replies are therefore matched to requests by order.
//
// The first connection error is sticky: the request in flight and all queued
// requests fail with it, as does every later Submit. There is no reconnect.
type Multiplexor struct {
	conn  *Connection
	queue chan *request

	mu   sync.Mutex // protects err
	err  error
	done chan struct{} // closed when err is set

	stopped chan struct{} // closed when the worker exited

	registry  gometrics.Registry
	queueWait gometrics.Timer
	roundTrip gometrics.Timer
	errCount  gometrics.Counter
}

// NewMultiplexor starts the worker for conn. A queueSize <= 0 selects DefaultQueueSize.
func NewMultiplexor(conn *Connection, queueSize int) *Multiplexor {
	return newMultiplexor(conn, queueSize, gometrics.NewRegistry())
}

func newMultiplexor(conn *Connection, queueSize int, registry gometrics.Registry) *Multiplexor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	m := &Multiplexor{
		conn:      conn,
		queue:     make(chan *request, queueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		registry:  registry,
		queueWait: gometrics.GetOrRegisterTimer("client.queue_wait", registry),
		roundTrip: gometrics.GetOrRegisterTimer("client.round_trip", registry),
		errCount:  gometrics.GetOrRegisterCounter("client.errors", registry),
	}

	go m.run()
	return m
}

// Submit queues a command. It blocks while the queue is full, until the
// multiplexor failed or until ctx is done.
func (m *Multiplexor) Submit(ctx context.Context, cmd common.Command) (*PendingReply, error) {
	if err := m.Err(); err != nil {
		return nil, err
	}

	req := &request{
		cmd:      cmd,
		replyCh:  make(chan reply, 1),
		enqueued: time.Now(),
	}

	select {
	case m.queue <- req:
		return &PendingReply{ch: req.replyCh, m: m}, nil
	case <-m.done:
		return nil, m.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits a command and waits for its reply
func (m *Multiplexor) Do(ctx context.Context, cmd common.Command) (common.Frame, error) {
	p, err := m.Submit(ctx, cmd)
	if err != nil {
		return common.Frame{}, err
	}
	return p.Wait(ctx)
}

// Err returns the error that stopped the multiplexor or nil while it is usable
func (m *Multiplexor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close fails all pending requests with ErrClientClosed and closes the connection
func (m *Multiplexor) Close() error {
	m.fail(ErrClientClosed)
	err := m.conn.Close()
	<-m.stopped
	return err
}

// Metrics returns the registry holding the latency timers and the error counter
func (m *Multiplexor) Metrics() gometrics.Registry {
	return m.registry
}

// run is the worker loop, the only goroutine touching the connection
func (m *Multiplexor) run() {
	defer close(m.stopped)

	for {
		select {
		case <-m.done:
			m.drain()
			return
		case req := <-m.queue:
			m.queueWait.UpdateSince(req.enqueued)

			start := time.Now()
			f, err := m.exchange(req.cmd)
			if err != nil {
				m.errCount.Inc(1)
				m.fail(err)
				req.deliver(reply{err: m.Err()})
				m.drain()
				return
			}
			m.roundTrip.UpdateSince(start)
			req.deliver(reply{frame: f})
		}
	}
}

// exchange writes one command and reads its reply
func (m *Multiplexor) exchange(cmd common.Command) (common.Frame, error) {
	if err := m.conn.WriteFrame(cmd.ToFrame()); err != nil {
		return common.Frame{}, err
	}
	return m.conn.ReadFrame()
}

// fail records the first error and wakes everybody waiting on the multiplexor
func (m *Multiplexor) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	if !errors.Is(err, ErrClientClosed) {
		Logger.Errorf("Connection to %s failed: %v", m.conn.RemoteAddr(), err)
	}
	m.err = err
	close(m.done)
}

// drain fails all queued requests
func (m *Multiplexor) drain() {
	err := m.Err()
	for {
		select {
		case req := <-m.queue:
			req.deliver(reply{err: err})
		default:
			return
		}
	}
}

// -----------------------------------------------------------
// Client Transport
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	registry  gometrics.Registry

	mu  sync.RWMutex // protects mux
	mux *Multiplexor
}

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		registry:  gometrics.NewRegistry(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	// Close an existing connection
	if err := t.Close(); err != nil {
		Logger.Warningf("Failed to close previous connection: %v", err)
	}

	netConn, err := t.connector.Connect(config)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", config.Transport.Endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(netConn, config); err != nil {
		netConn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", config.Transport.Endpoint, err)
	}

	conn := NewConnection(netConn)
	conn.SetTimeout(timeoutFromSeconds(int64(config.TimeoutSecond)))

	t.mu.Lock()
	t.config = config
	t.mux = newMultiplexor(conn, config.QueueSize, t.registry)
	t.mu.Unlock()

	Logger.Infof("Connected to %s using %s transport", config.Transport.Endpoint, t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(ctx context.Context, cmd common.Command) (common.Frame, error) {
	t.mu.RLock()
	mux := t.mux
	t.mu.RUnlock()

	if mux == nil {
		return common.Frame{}, ErrNotConnected
	}
	return mux.Do(ctx, cmd)
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	mux := t.mux
	t.mux = nil
	t.mu.Unlock()

	if mux == nil {
		return nil
	}
	return mux.Close()
}

func (t *clientTransport) Metrics() gometrics.Registry {
	return t.registry
}
