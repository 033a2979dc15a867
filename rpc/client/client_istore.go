package client

import (
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a config and a transport as parameters
// It connects the transport and returns a store.IStore backed by the remote server
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			config:    config,
			transport: transport,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	resp, err := i.invoke(common.NewSetCommand(key, value))
	if err != nil {
		return err
	}
	return expectOK(resp)
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invoke(common.NewGetCommand(key))
	if err != nil {
		return nil, false, err
	}
	return expectValue(resp)
}

// GetInfo is not implemented for rpc
func (i *rpcStore) GetInfo() (info store.Info, err error) {
	return store.Info{}, store.NewError(store.RetCInvalidOperation, "the GetInfo() method is not implemented in the rpc client adapter")
}
