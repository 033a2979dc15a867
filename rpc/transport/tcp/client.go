package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/base"
)

// clientConnector dials TCP endpoints and tunes the socket after connecting
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(config common.ClientConfig) (net.Conn, error) {
	dialer := net.Dialer{Timeout: base.DialTimeout(config)}

	// the dialer enables keep-alive with a 15s period unless told otherwise
	if config.Transport.TCPKeepAliveSec > 0 {
		dialer.KeepAlive = time.Duration(config.Transport.TCPKeepAliveSec) * time.Second
	} else {
		dialer.KeepAlive = -1
	}

	conn, err := dialer.Dial("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", config.Transport.Endpoint, err)
	}
	return conn, nil
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return base.UpgradeTCPConnection(conn, config.Transport.SocketConf, config.Transport.TCPConf)
}

// NewTCPClientTransport returns a client transport sharing one TCP connection between all callers
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
