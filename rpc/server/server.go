package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/base"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// RPCServer serves one shared store over a transport
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport

	mu          sync.Mutex
	store       store.IStore
	metrics     *serverMetrics
	adapter     IRPCServerAdapter
	metricsHTTP *http.Server
}

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &RPCServer{
		config:    config,
		transport: transport,
	}
}

// Handle interprets a request frame and executes it against the store.
// Unrecognized commands are answered with an error frame.
func (s *RPCServer) Handle(req common.Frame) common.Frame {
	return handleFrame(req, s.adapter, s.store, s.metrics)
}

// init creates the store and wires the transport and the metrics
func (s *RPCServer) init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := lstore.NewLocalStore(s.config.Shards)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	s.store = st
	s.metrics = newServerMetrics(st)
	s.adapter = newIStoreServerAdapter(s.metrics)

	if info, err := st.GetInfo(); err == nil {
		Logger.Infof("Created local store with %d shards", info.ShardCount)
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.Handle)
	s.transport.RegisterConnState(s.metrics.connState)

	// Start the metrics endpoint
	if s.config.MetricsEndpoint != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics)
		s.metricsHTTP = &http.Server{
			Addr:              s.config.MetricsEndpoint,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func(srv *http.Server) {
			Logger.Infof("Serving metrics on http://%s/metrics", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("Metrics endpoint failed: %v", err)
			}
		}(s.metricsHTTP)
	}

	Logger.Infof("mKV setup completed successfully")
	return nil
}

// Serve starts the RPC server
// This function will also initialize the store and start the transport layer.
// It blocks until the server is closed.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint
func (s *RPCServer) Close() error {
	s.mu.Lock()
	metricsHTTP := s.metricsHTTP
	s.mu.Unlock()

	if metricsHTTP != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsHTTP.Shutdown(ctx); err != nil {
			Logger.Warningf("Failed to stop metrics endpoint: %v", err)
		}
	}
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Connection Handler
// --------------------------------------------------------------------------

// RunConnection serves requests from one connection against the store until the
// peer disconnects. It returns nil on a clean disconnect and the error that ended
// the loop otherwise (malformed input, connection reset, I/O failure).
func RunConnection(conn *base.Connection, s store.IStore) error {
	adapter := newIStoreServerAdapter(nil)
	return base.ServeConnection(conn, func(req common.Frame) common.Frame {
		return handleFrame(req, adapter, s, nil)
	})
}

// handleFrame interprets the frame and lets the adapter execute the command
func handleFrame(req common.Frame, adapter IRPCServerAdapter, s store.IStore, m *serverMetrics) common.Frame {
	cmd, err := common.CommandFromFrame(req)
	if err != nil {
		var unrecognized *common.UnrecognizedCommandError
		if errors.As(err, &unrecognized) {
			Logger.Debugf("Unrecognized command %s: %s", unrecognized.Frame, unrecognized.Reason)
		}
		m.countCommand(common.CmdTUnknown)
		return common.NewErrorReply(err)
	}
	return adapter.Handle(cmd, s)
}
