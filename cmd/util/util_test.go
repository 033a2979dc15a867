package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("short text"); got != "short text" {
		t.Errorf("Expected short text to stay on one line, got %q", got)
	}
}

func TestGetClientConfig(t *testing.T) {
	defer viper.Reset()

	viper.Set("endpoint", "localhost:7777")
	viper.Set("timeout", 3)
	viper.Set("queue-size", 8)
	viper.Set("write-buffer", 64)
	viper.Set("tcp-nodelay", true)

	conf := GetClientConfig()
	if conf.Transport.Endpoint != "localhost:7777" || conf.TimeoutSecond != 3 || conf.QueueSize != 8 {
		t.Errorf("Unexpected client config: %+v", conf)
	}
	if conf.Transport.WriteBufferSize != 64*1024 || !conf.Transport.TCPNoDelay {
		t.Errorf("Unexpected socket config: %+v", conf.Transport)
	}
}

func TestGetTransport(t *testing.T) {
	defer viper.Reset()

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		if _, err := GetClientTransport(); err != nil {
			t.Errorf("Client transport %s: %v", name, err)
		}
		if _, err := GetServerTransport(); err != nil {
			t.Errorf("Server transport %s: %v", name, err)
		}
	}

	viper.Set("transport", "http")
	if _, err := GetClientTransport(); err == nil {
		t.Error("Expected an error for an unknown transport")
	}
}
