package common

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Frame Type Definition
// --------------------------------------------------------------------------

// FrameType tags the variant held by a Frame.
type FrameType uint8

const (
	FrameTSimple  FrameType = iota // +<text>\r\n
	FrameTError                    // -<text>\r\n
	FrameTInteger                  // :<decimal>\r\n
	FrameTNull                     // $-1\r\n
	FrameTBulk                     // $<len>\r\n<bytes>\r\n
	FrameTArray                    // *<count>\r\n<elements>
)

// String returns the string representation of a FrameType.
func (t FrameType) String() string {
	switch t {
	case FrameTSimple:
		return "simple"
	case FrameTError:
		return "error"
	case FrameTInteger:
		return "integer"
	case FrameTNull:
		return "null"
	case FrameTBulk:
		return "bulk"
	case FrameTArray:
		return "array"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Frame Structure
// --------------------------------------------------------------------------

// Frame is one self-delimited protocol message exchanged on the wire.
// Which field carries the payload depends on the type of frame.
type Frame struct {
	Type FrameType

	Text  string  // Used for: Simple, Error
	Int   int64   // Used for: Integer
	Bulk  []byte  // Used for: Bulk
	Array []Frame // Used for: Array (elements are never arrays themselves)
}

// --------------------------------------------------------------------------
// Frame Factory Functions
// --------------------------------------------------------------------------

// NewSimpleFrame creates a simple status frame
func NewSimpleFrame(text string) Frame {
	return Frame{Type: FrameTSimple, Text: text}
}

// NewErrorFrame creates an error status frame
func NewErrorFrame(text string) Frame {
	return Frame{Type: FrameTError, Text: text}
}

// NewIntegerFrame creates an integer frame
func NewIntegerFrame(i int64) Frame {
	return Frame{Type: FrameTInteger, Int: i}
}

// NewNullFrame creates a frame signaling the absence of a value
func NewNullFrame() Frame {
	return Frame{Type: FrameTNull}
}

// NewBulkFrame creates a length-prefixed payload frame
func NewBulkFrame(data []byte) Frame {
	if data == nil {
		data = []byte{}
	}
	return Frame{Type: FrameTBulk, Bulk: data}
}

// NewArrayFrame creates an array frame from the given elements
func NewArrayFrame(elements ...Frame) Frame {
	if elements == nil {
		elements = []Frame{}
	}
	return Frame{Type: FrameTArray, Array: elements}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// Equal reports whether two frames carry the same variant and payload.
func (f Frame) Equal(o Frame) bool {
	if f.Type != o.Type {
		return false
	}
	switch f.Type {
	case FrameTSimple, FrameTError:
		return f.Text == o.Text
	case FrameTInteger:
		return f.Int == o.Int
	case FrameTNull:
		return true
	case FrameTBulk:
		return bytes.Equal(f.Bulk, o.Bulk)
	case FrameTArray:
		if len(f.Array) != len(o.Array) {
			return false
		}
		for i := range f.Array {
			if !f.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a readable representation used in log messages.
func (f Frame) String() string {
	switch f.Type {
	case FrameTSimple:
		return fmt.Sprintf("+%q", f.Text)
	case FrameTError:
		return fmt.Sprintf("-%q", f.Text)
	case FrameTInteger:
		return ":" + strconv.FormatInt(f.Int, 10)
	case FrameTNull:
		return "(nil)"
	case FrameTBulk:
		return fmt.Sprintf("$%q", f.Bulk)
	case FrameTArray:
		parts := make([]string, len(f.Array))
		for i, e := range f.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "(unknown frame)"
	}
}
