// Package client implements the RPC client for the mKV key-value store.
// It provides a store.IStore that forwards every operation to a remote server
// over a transport.IRPCClientTransport.
//
// Key Components:
//
//   - NewRPCStore: Connects the transport and returns a store.IStore. Set and Get are
//     sent as commands, replies are mapped back (OK, value, null or error).
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoint: "localhost:6666",
//	  },
//	}
//
//	s, err := client.NewRPCStore(config, tcp.NewTCPClientTransport())
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//
// Thread Safety:
//
//	The store may be used from many goroutines. All of them share one connection,
//	their requests are queued and sent one at a time.
package client
