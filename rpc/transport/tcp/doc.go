// Package tcp implements the TCP socket based transport for mKV.
// It provides concrete implementations of the base package's connector
// interfaces, see the base package documentation for the connection handling itself.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both sides tune accepted and dialed connections with the TCPConf and SocketConf
// settings of their configuration (no-delay, keep-alive, linger, socket buffers).
package tcp
