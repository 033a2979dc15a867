package base

import (
	"net"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// UpgradeTCPConnection applies performance optimizations to a TCP connection
// using configuration values from TCPConf and SocketConf.
// Connections that are not TCP connections are left untouched.
func UpgradeTCPConnection(conn net.Conn, sock common.SocketConf, tcp common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(tcp.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if sock.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sock.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if sock.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sock.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcp.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}

		keepAlivePeriod := time.Duration(tcp.TCPKeepAliveSec) * time.Second
		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured (0 keeps the OS default)
	if tcp.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(tcp.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}

// DefaultDialTimeout bounds connection setup if the client has no timeout configured
const DefaultDialTimeout = 10 * time.Second

// DialTimeout returns how long a connector may take to establish a connection
func DialTimeout(config common.ClientConfig) time.Duration {
	if d := timeoutFromSeconds(int64(config.TimeoutSecond)); d > 0 {
		return d
	}
	return DefaultDialTimeout
}

// timeoutFromSeconds converts a configured timeout, values <= 0 disable the timeout
func timeoutFromSeconds(sec int64) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
