// Package unix implements a transport layer for mKV using Unix domain sockets.
// It provides fast communication for processes running on the same machine.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners. A stale socket file left
//     behind by a previous process is removed before listening.
package unix
