package unix

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
)

func TestUnixRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mkv.sock")

	// a stale file from a previous run must not prevent listening
	if err := os.WriteFile(socketPath, []byte("stale"), 0o600); err != nil {
		t.Fatalf("Failed to create stale file: %v", err)
	}

	srv := NewUnixServerTransport()
	srv.RegisterHandler(func(req common.Frame) common.Frame {
		return common.NewOKReply()
	})
	go srv.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: socketPath}})
	defer srv.Close()

	client := NewUnixClientTransport()
	config := common.ClientConfig{Transport: common.ClientTransportConfig{Endpoint: socketPath}}

	// wait for the listener
	deadline := time.Now().Add(5 * time.Second)
	for {
		err := client.Connect(config)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Connect failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer client.Close()

	f, err := client.Send(context.Background(), common.NewSetCommand("k", []byte("v")))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !f.Equal(common.NewOKReply()) {
		t.Errorf("Unexpected reply %s", f)
	}
}

func TestUnixConnectRejectsNonSocket(t *testing.T) {
	dir := t.TempDir()
	plainFile := filepath.Join(dir, "plain")
	if err := os.WriteFile(plainFile, nil, 0o600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	client := NewUnixClientTransport()
	for _, path := range []string{plainFile, filepath.Join(dir, "missing.sock")} {
		config := common.ClientConfig{Transport: common.ClientTransportConfig{Endpoint: path}}
		if err := client.Connect(config); err == nil {
			client.Close()
			t.Errorf("Expected connecting to %s to fail", path)
		}
	}
}
