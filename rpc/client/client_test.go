package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	storetesting "github.com/ValentinKolb/mKV/lib/store/testing"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/server"
	"github.com/ValentinKolb/mKV/rpc/transport/base"
	"github.com/ValentinKolb/mKV/rpc/transport/unix"
)

// startServer serves a fresh store on a unix socket and returns a connected client
func startServer(t testing.TB) store.IStore {
	t.Helper()

	// t.TempDir() may exceed the socket path limit
	dir, err := os.MkdirTemp("", "mkv")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	socketPath := filepath.Join(dir, "s.sock")

	srv := server.NewRPCServer(common.ServerConfig{
		Shards:    16,
		Transport: common.ServerTransportConfig{Endpoint: socketPath},
	}, unix.NewUnixServerTransport())
	go srv.Serve()

	config := common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoint: socketPath},
	}

	// wait for the listener
	var s store.IStore
	deadline := time.Now().Add(5 * time.Second)
	for {
		s, err = NewRPCStore(config, unix.NewUnixClientTransport())
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to connect: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		srv.Close()
		os.RemoveAll(dir)
	})
	return s
}

func TestRPCStore(t *testing.T) {
	storetesting.RunStoreTests(t, "RPCStore", startServer)
}

func BenchmarkRPCStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "RPCStore", startServer)
}

func TestRPCStoreGetInfo(t *testing.T) {
	s := startServer(t)

	_, err := s.GetInfo()
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("Expected an InvalidOperation error, got %v", err)
	}
}

func TestRPCStoreServerGone(t *testing.T) {
	s := startServer(t)

	if err := s.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// the client transport closes its connection, later requests fail
	s.(*rpcStore).transport.Close()
	if err := s.Set("k", []byte("v")); !errors.Is(err, base.ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestReplyMapping(t *testing.T) {
	if err := expectOK(common.NewOKReply()); err != nil {
		t.Errorf("Expected nil for OK, got %v", err)
	}
	if err := expectOK(common.NewSimpleFrame("QUEUED")); err == nil {
		t.Error("Expected an error for an unexpected simple reply")
	}

	v, ok, err := expectValue(common.NewBulkFrame([]byte("x")))
	if err != nil || !ok || string(v) != "x" {
		t.Errorf("Unexpected bulk mapping: %q %v %v", v, ok, err)
	}
	v, ok, err = expectValue(common.NewNullFrame())
	if err != nil || ok || v != nil {
		t.Errorf("Unexpected null mapping: %q %v %v", v, ok, err)
	}
	if _, _, err := expectValue(common.NewIntegerFrame(1)); err == nil {
		t.Error("Expected an error for an integer reply")
	}

	_, _, err = expectValue(common.NewErrorFrame("ERR boom"))
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || !strings.Contains(storeErr.Msg, "boom") {
		t.Errorf("Expected the server message in a store error, got %v", err)
	}
}
