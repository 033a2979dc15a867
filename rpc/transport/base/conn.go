package base

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
)

const (
	initialBufferSize = 4 * 1024 // 4 KB
	writeBufferSize   = 4 * 1024 // 4 KB
)

// ErrConnectionReset is returned when the peer closes the stream in the middle of a frame
var ErrConnectionReset = errors.New("connection reset by peer")

// Connection reads and writes frames on a byte stream.
// The read buffer is owned by the connection, it must not be used by
// more than one reader (or more than one writer) at a time.
type Connection struct {
	conn   net.Conn
	writer *bufio.Writer

	// unconsumed input is buf[r:w]
	buf []byte
	r   int
	w   int

	timeout time.Duration
}

// NewConnection wraps a net.Conn
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:   conn,
		writer: bufio.NewWriterSize(conn, writeBufferSize),
		buf:    make([]byte, initialBufferSize),
	}
}

// SetTimeout sets the deadline applied to every read and write (0 = none)
func (c *Connection) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// RemoteAddr returns the address of the peer
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying stream
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadFrame returns the next frame from the stream.
// It returns io.EOF if the peer closed the stream on a frame boundary,
// ErrConnectionReset if it closed it inside a frame and an error wrapping
// serializer.ErrMalformed if the stream violates the protocol.
func (c *Connection) ReadFrame() (common.Frame, error) {
	for {
		// try to decode a frame from the buffered bytes
		if c.w > c.r {
			f, n, err := serializer.TryDecode(c.buf[c.r:c.w])
			if err == nil {
				c.r += n
				if c.r == c.w {
					c.r, c.w = 0, 0
				}
				return f, nil
			}
			if !errors.Is(err, serializer.ErrIncomplete) {
				return common.Frame{}, err
			}
		}

		// need more bytes
		c.reserve()

		if c.timeout > 0 {
			if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
				return common.Frame{}, fmt.Errorf("failed to set read deadline: %w", err)
			}
		}

		n, err := c.conn.Read(c.buf[c.w:])
		c.w += n

		if err == nil || n > 0 && errors.Is(err, io.EOF) {
			// io.EOF with data: decode what was read, the next read reports EOF again
			continue
		}
		if errors.Is(err, io.EOF) {
			if c.w == c.r {
				return common.Frame{}, io.EOF
			}
			return common.Frame{}, ErrConnectionReset
		}
		return common.Frame{}, fmt.Errorf("failed to read from connection: %w", err)
	}
}

// WriteFrame encodes the frame and writes it to the stream.
// Nothing is written if the frame cannot be encoded.
func (c *Connection) WriteFrame(f common.Frame) error {
	data, err := serializer.Encode(f)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

// reserve makes room for at least one more byte behind c.w.
// Consumed bytes are reclaimed first, the buffer only grows if it is full of unconsumed data.
func (c *Connection) reserve() {
	if c.w < len(c.buf) {
		return
	}
	if c.r > 0 {
		n := copy(c.buf, c.buf[c.r:c.w])
		c.r, c.w = 0, n
		return
	}
	grown := make([]byte, 2*len(c.buf))
	copy(grown, c.buf[:c.w])
	c.buf = grown
}
