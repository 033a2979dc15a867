package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/common"
)

// newIStoreServerAdapter creates the adapter executing GET and SET against a store.IStore.
// m may be nil.
func newIStoreServerAdapter(m *serverMetrics) IRPCServerAdapter {
	return &iStoreServerAdapterImpl{metrics: m}
}

type iStoreServerAdapterImpl struct {
	metrics *serverMetrics
}

func (adapter *iStoreServerAdapterImpl) Handle(cmd common.Command, store store.IStore) common.Frame {
	// Check for nil store
	if store == nil {
		return common.NewErrorReply(fmt.Errorf("ERR handler: store is nil"))
	}

	start := time.Now()
	defer adapter.metrics.observeDuration(start)

	switch cmd.Type {
	case common.CmdTSet:
		adapter.metrics.countCommand(cmd.Type)
		if err := store.Set(cmd.Key, cmd.Value); err != nil {
			return common.NewErrorReply(fmt.Errorf("ERR %w", err))
		}
		return common.NewOKReply()

	case common.CmdTGet:
		adapter.metrics.countCommand(cmd.Type)
		value, ok, err := store.Get(cmd.Key)
		if err != nil {
			return common.NewErrorReply(fmt.Errorf("ERR %w", err))
		}
		adapter.metrics.countLookup(ok)
		return common.NewValueReply(value, ok)

	default:
		adapter.metrics.countCommand(common.CmdTUnknown)
		return common.NewErrorReply(fmt.Errorf("ERR unsupported command type: %s", cmd.Type))
	}
}
