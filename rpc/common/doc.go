// Package common provides core data structures and utilities shared across
// the mKV server, client and command line. It defines the frame model,
// the command interpreter, configuration structures and logging.
//
// The package focuses on:
//   - The protocol data model (Frame) used by the codec and the connections
//   - Interpretation of request frames into typed commands
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with the Dragonboat logger facade
//
// Key Components:
//
//   - Frame: One protocol message, a tagged variant of simple string, error,
//     integer, null, bulk string or a flat array of those.
//
//   - Command: A typed GET or SET request. CommandFromFrame interprets an
//     incoming array frame and ToFrame builds the frame a client sends.
//     Frames that are not a supported command yield an UnrecognizedCommandError,
//     which the server turns into an error reply without dropping the connection.
//
//   - ServerConfig: Configuration for the server process, including the
//     listener, socket options, shard count and observability settings.
//
//   - ClientConfig: Configuration for client components, controlling the
//     endpoint, timeouts and the depth of the request queue.
//
//   - Logger: Zerolog backed implementation of Dragonboat's ILogger so every
//     package logs through logger.GetLogger with a consistent format.
package common
