package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// invoke sends a command and waits for the reply, bounded by the configured timeout
func (a *rpcClientAdapter) invoke(cmd common.Command) (common.Frame, error) {
	ctx := context.Background()
	if a.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.config.TimeoutSecond)*time.Second)
		defer cancel()
	}

	resp, err := a.transport.Send(ctx, cmd)
	if err != nil {
		Logger.Debugf("Request %s %q failed: %v", cmd.Type, cmd.Key, err)
		return common.Frame{}, fmt.Errorf("RPC %s failed: %w", cmd.Type, err)
	}
	return resp, nil
}

// expectOK maps the reply of a Set
func expectOK(resp common.Frame) error {
	switch resp.Type {
	case common.FrameTSimple:
		if resp.Text == "OK" {
			return nil
		}
	case common.FrameTError:
		return remoteError(resp)
	}
	return fmt.Errorf("RPC set - unexpected reply: %s", resp)
}

// expectValue maps the reply of a Get
func expectValue(resp common.Frame) ([]byte, bool, error) {
	switch resp.Type {
	case common.FrameTBulk:
		return resp.Bulk, true, nil
	case common.FrameTNull:
		return nil, false, nil
	case common.FrameTError:
		return nil, false, remoteError(resp)
	}
	return nil, false, fmt.Errorf("RPC get - unexpected reply: %s", resp)
}

// remoteError converts an error reply into a store error
func remoteError(resp common.Frame) error {
	return store.NewError(store.RetCInternalError, resp.Text)
}
