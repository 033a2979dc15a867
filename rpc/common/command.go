package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Command Type Definition
// --------------------------------------------------------------------------

// CommandType defines the operation requested by a client.
type CommandType uint8

const (
	CmdTUnknown CommandType = iota
	CmdTGet                 // Get a value by key
	CmdTSet                 // Set a key-value pair
)

// String returns the lower-case verb used on the wire.
func (t CommandType) String() string {
	switch t {
	case CmdTGet:
		return "get"
	case CmdTSet:
		return "set"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Command Structure
// --------------------------------------------------------------------------

// Command is a typed request decoded from (or encoded into) an array frame.
type Command struct {
	Type  CommandType
	Key   string // Used for: Get, Set
	Value []byte // Used for: Set
}

// NewGetCommand creates a new Get command
func NewGetCommand(key string) Command {
	return Command{Type: CmdTGet, Key: key}
}

// NewSetCommand creates a new Set command
func NewSetCommand(key string, value []byte) Command {
	return Command{Type: CmdTSet, Key: key, Value: value}
}

// ToFrame encodes the command as an array of bulk strings:
//
//	GET key       -> [$"get" $key]
//	SET key value -> [$"set" $key $value]
func (c Command) ToFrame() Frame {
	switch c.Type {
	case CmdTGet:
		return NewArrayFrame(
			NewBulkFrame([]byte(c.Type.String())),
			NewBulkFrame([]byte(c.Key)),
		)
	case CmdTSet:
		return NewArrayFrame(
			NewBulkFrame([]byte(c.Type.String())),
			NewBulkFrame([]byte(c.Key)),
			NewBulkFrame(c.Value),
		)
	default:
		return NewArrayFrame()
	}
}

// --------------------------------------------------------------------------
// Command Interpreter
// --------------------------------------------------------------------------

// UnrecognizedCommandError is returned when a frame does not describe a supported command.
// It is recoverable: the server answers with an error frame and keeps the connection.
type UnrecognizedCommandError struct {
	Frame  Frame  // the frame as received
	Reason string // message sent back to the client
}

func (e *UnrecognizedCommandError) Error() string {
	return e.Reason
}

// CommandFromFrame interprets a request frame.
// The verb is matched case-insensitively and may be a simple or a bulk string.
func CommandFromFrame(f Frame) (Command, error) {
	if f.Type != FrameTArray || len(f.Array) == 0 {
		return Command{}, &UnrecognizedCommandError{Frame: f, Reason: "ERR invalid command frame"}
	}

	verb, ok := frameString(f.Array[0])
	if !ok {
		return Command{}, &UnrecognizedCommandError{Frame: f, Reason: "ERR invalid command frame"}
	}
	verb = strings.ToLower(verb)
	args := f.Array[1:]

	switch verb {
	case "get":
		if len(args) != 1 {
			return Command{}, wrongArgs(f, verb)
		}
		key, ok := frameString(args[0])
		if !ok {
			return Command{}, invalidArgType(f, verb)
		}
		return NewGetCommand(key), nil

	case "set":
		if len(args) != 2 {
			return Command{}, wrongArgs(f, verb)
		}
		key, ok := frameString(args[0])
		if !ok {
			return Command{}, invalidArgType(f, verb)
		}
		value, ok := frameBytes(args[1])
		if !ok {
			return Command{}, invalidArgType(f, verb)
		}
		return NewSetCommand(key, value), nil
	}

	return Command{}, &UnrecognizedCommandError{
		Frame:  f,
		Reason: fmt.Sprintf("ERR unknown command '%s'", verb),
	}
}

// --------------------------------------------------------------------------
// Reply Factory Functions
// --------------------------------------------------------------------------

// NewOKReply creates the reply for a successful Set
func NewOKReply() Frame {
	return NewSimpleFrame("OK")
}

// NewValueReply creates the reply for a Get: the value on a hit, null on a miss
func NewValueReply(value []byte, found bool) Frame {
	if !found {
		return NewNullFrame()
	}
	return NewBulkFrame(value)
}

// NewErrorReply creates an error reply from an error
func NewErrorReply(err error) Frame {
	return NewErrorFrame(sanitizeLine(err.Error()))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func wrongArgs(f Frame, verb string) error {
	return &UnrecognizedCommandError{
		Frame:  f,
		Reason: fmt.Sprintf("ERR wrong number of arguments for '%s' command", verb),
	}
}

// invalidArgType is used when the count is right but an argument is not a string
func invalidArgType(f Frame, verb string) error {
	return &UnrecognizedCommandError{
		Frame:  f,
		Reason: fmt.Sprintf("ERR invalid argument type for '%s' command", verb),
	}
}

// frameString returns the text of a simple or bulk frame
func frameString(f Frame) (string, bool) {
	switch f.Type {
	case FrameTSimple:
		return f.Text, true
	case FrameTBulk:
		return string(f.Bulk), true
	default:
		return "", false
	}
}

// frameBytes returns the payload of a simple or bulk frame
func frameBytes(f Frame) ([]byte, bool) {
	switch f.Type {
	case FrameTSimple:
		return []byte(f.Text), true
	case FrameTBulk:
		return f.Bulk, true
	default:
		return nil, false
	}
}

// sanitizeLine replaces line breaks so the text fits into a simple or error frame
func sanitizeLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
