package server

import (
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for executing commands against a store
type IRPCServerAdapter interface {
	// Handle executes a command and returns the reply frame
	// It takes a Command and a store as parameters.
	// If an error occurs, it is returned as an error frame
	Handle(cmd common.Command, store store.IStore) (resp common.Frame)
}
