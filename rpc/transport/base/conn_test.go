package base

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
)

// newConnPair returns a connected pair, the peer is a raw net.Conn for writing arbitrary bytes
func newConnPair(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewConnection(a), b
}

func mustEncode(t *testing.T, f common.Frame) []byte {
	t.Helper()
	data, err := serializer.Encode(f)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", f, err)
	}
	return data
}

func TestReadFrameByteByByte(t *testing.T) {
	conn, peer := newConnPair(t)
	frame := common.NewSetCommand("hello", []byte("world")).ToFrame()
	data := mustEncode(t, frame)

	go func() {
		for i := range data {
			if _, err := peer.Write(data[i : i+1]); err != nil {
				return
			}
		}
		peer.Close()
	}()

	got, err := conn.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !got.Equal(frame) {
		t.Errorf("Expected %s, got %s", frame, got)
	}

	// clean close on a frame boundary
	if _, err := conn.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestReadFrameMultipleFramesInOneWrite(t *testing.T) {
	conn, peer := newConnPair(t)
	frames := []common.Frame{
		common.NewSimpleFrame("OK"),
		common.NewBulkFrame([]byte("value")),
		common.NewNullFrame(),
		common.NewIntegerFrame(7),
	}

	var all []byte
	for _, f := range frames {
		all = append(all, mustEncode(t, f)...)
	}
	go func() {
		peer.Write(all)
		peer.Close()
	}()

	for i, want := range frames {
		got, err := conn.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if !got.Equal(want) {
			t.Errorf("Frame %d: expected %s, got %s", i, want, got)
		}
	}
	if _, err := conn.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestReadFrameLargerThanBuffer(t *testing.T) {
	conn, peer := newConnPair(t)
	frame := common.NewBulkFrame(bytes.Repeat([]byte("abc"), 10*initialBufferSize))
	data := mustEncode(t, frame)

	go peer.Write(data)

	got, err := conn.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !got.Equal(frame) {
		t.Errorf("Large frame did not survive the read")
	}
}

func TestReadFrameConnectionReset(t *testing.T) {
	conn, peer := newConnPair(t)

	go func() {
		peer.Write([]byte("*2\r\n$3\r\nget\r\n$5\r\nhel"))
		peer.Close()
	}()

	if _, err := conn.ReadFrame(); !errors.Is(err, ErrConnectionReset) {
		t.Errorf("Expected ErrConnectionReset, got %v", err)
	}
}

func TestReadFrameMalformed(t *testing.T) {
	conn, peer := newConnPair(t)

	go peer.Write([]byte("$abc\r\nhello\r\n"))

	if _, err := conn.ReadFrame(); !errors.Is(err, serializer.ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestWriteFrame(t *testing.T) {
	conn, peer := newConnPair(t)
	reader := NewConnection(peer)

	// invalid frames are rejected without writing anything
	if err := conn.WriteFrame(common.NewArrayFrame(common.NewArrayFrame())); !errors.Is(err, serializer.ErrNestedArray) {
		t.Fatalf("Expected ErrNestedArray, got %v", err)
	}
	if err := conn.WriteFrame(common.NewSimpleFrame("a\r\nb")); !errors.Is(err, serializer.ErrInvalidText) {
		t.Fatalf("Expected ErrInvalidText, got %v", err)
	}

	frame := common.NewGetCommand("key").ToFrame()
	errCh := make(chan error, 1)
	go func() { errCh <- conn.WriteFrame(frame) }()

	got, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !got.Equal(frame) {
		t.Errorf("Expected %s, got %s", frame, got)
	}
	if err := <-errCh; err != nil {
		t.Errorf("WriteFrame failed: %v", err)
	}
}

func TestReserveCompactsBeforeGrowing(t *testing.T) {
	c := &Connection{buf: make([]byte, 8)}
	copy(c.buf, "xxxxabcd")
	c.r, c.w = 4, 8

	c.reserve()

	if len(c.buf) != 8 {
		t.Errorf("Expected the buffer to be compacted, not grown (len %d)", len(c.buf))
	}
	if c.r != 0 || c.w != 4 || string(c.buf[:c.w]) != "abcd" {
		t.Errorf("Unexpected buffer state r=%d w=%d data=%q", c.r, c.w, c.buf[:c.w])
	}

	c.w = 8
	c.reserve()
	if len(c.buf) != 16 || string(c.buf[:4]) != "abcd" {
		t.Errorf("Expected the full buffer to grow and keep its data (len %d)", len(c.buf))
	}
}
