package unix

import (
	"fmt"
	"net"
	"os"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/base"
)

// clientConnector dials a unix domain socket given by its path
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(config common.ClientConfig) (net.Conn, error) {
	path := config.Transport.Endpoint

	// a missing or wrong file gives a clearer error than the dial
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unix socket %s: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("unix socket %s: not a socket", path)
	}

	return net.DialTimeout("unix", path, base.DialTimeout(config))
}

func (c *clientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil // unix sockets have no options to tune
}

// NewUnixClientTransport returns a client transport sharing one unix socket connection between all callers
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
