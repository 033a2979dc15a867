package serializer

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/pkg/errors"
)

// NewRESPSerializer creates the codec for the RESP subset spoken by mKV
func NewRESPSerializer() IRPCSerializer {
	return respSerializerImpl{}
}

// respSerializerImpl implements IRPCSerializer with the package level functions
type respSerializerImpl struct{}

// --------------------------------------------------------------------------
// Constants & Errors
// --------------------------------------------------------------------------

// Protocol limits (same as redis)
const (
	MaxBulkLen  = 512 * 1024 * 1024 // 512 MB
	MaxArrayLen = 1024 * 1024       // elements
	MaxLineLen  = 64 * 1024         // header and status lines
)

var (
	// ErrIncomplete signals that more bytes are needed to decode a frame. It is not a failure.
	ErrIncomplete = errors.New("incomplete frame")
	// ErrMalformed is wrapped by every decoding error caused by invalid bytes.
	ErrMalformed = errors.New("malformed frame")
	// ErrNestedArray is returned when encoding an array that contains an array.
	ErrNestedArray = errors.New("array frames cannot be nested")
	// ErrInvalidText is returned when encoding a simple or error frame containing CR or LF.
	ErrInvalidText = errors.New("simple and error frames cannot contain CR or LF")
)

var (
	crlf       = []byte("\r\n")
	nullLength = []byte("-1")
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (respSerializerImpl) Encode(f common.Frame) ([]byte, error) {
	return Encode(f)
}

func (respSerializerImpl) TryDecode(buf []byte) (common.Frame, int, error) {
	return TryDecode(buf)
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Check scans buf just far enough to confirm that it starts with a complete frame
// and returns the length of that frame in bytes. Nothing is allocated.
func Check(buf []byte) (int, error) {
	c := cursor{buf: buf}
	if _, err := c.frame(true, false); err != nil {
		return 0, err
	}
	return c.pos, nil
}

// Parse builds the first frame of buf. Payloads are copied, so buf may be reused afterward.
func Parse(buf []byte) (common.Frame, int, error) {
	c := cursor{buf: buf}
	f, err := c.frame(true, true)
	if err != nil {
		return common.Frame{}, 0, err
	}
	return f, c.pos, nil
}

// TryDecode validates the first frame of buf and only then materializes it.
// A failed or incomplete attempt never yields a partial frame.
func TryDecode(buf []byte) (common.Frame, int, error) {
	n, err := Check(buf)
	if err != nil {
		return common.Frame{}, 0, err
	}
	f, m, err := Parse(buf[:n])
	if err != nil {
		return common.Frame{}, 0, err
	}
	if m != n {
		return common.Frame{}, 0, errors.Wrapf(ErrMalformed, "frame length mismatch (%d != %d)", m, n)
	}
	return f, n, nil
}

// cursor walks over a buffer. With build=false frames are only validated.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) frame(top, build bool) (common.Frame, error) {
	if c.pos >= len(c.buf) {
		return common.Frame{}, ErrIncomplete
	}
	marker := c.buf[c.pos]
	c.pos++

	switch marker {
	case '+', '-':
		line, err := c.line()
		if err != nil {
			return common.Frame{}, err
		}
		if bytes.IndexByte(line, '\r') >= 0 || bytes.IndexByte(line, '\n') >= 0 {
			return common.Frame{}, errors.Wrap(ErrMalformed, "line break inside status text")
		}
		if !build {
			return common.Frame{}, nil
		}
		if marker == '+' {
			return common.NewSimpleFrame(string(line)), nil
		}
		return common.NewErrorFrame(string(line)), nil

	case ':':
		line, err := c.line()
		if err != nil {
			return common.Frame{}, err
		}
		i, ok := parseDecimal(line)
		if !ok {
			return common.Frame{}, errors.Wrapf(ErrMalformed, "invalid integer %q", line)
		}
		return common.NewIntegerFrame(i), nil

	case '$':
		n, err := c.length(MaxBulkLen)
		if err != nil {
			return common.Frame{}, err
		}
		if n == -1 {
			return common.NewNullFrame(), nil
		}
		if n < 0 {
			return common.Frame{}, errors.Wrapf(ErrMalformed, "invalid bulk length %d", n)
		}
		end := c.pos + int(n)
		if len(c.buf) < end+len(crlf) {
			return common.Frame{}, ErrIncomplete
		}
		if !bytes.Equal(c.buf[end:end+len(crlf)], crlf) {
			return common.Frame{}, errors.Wrap(ErrMalformed, "bulk payload not terminated by CRLF")
		}
		var f common.Frame
		if build {
			data := make([]byte, n)
			copy(data, c.buf[c.pos:end])
			f = common.NewBulkFrame(data)
		}
		c.pos = end + len(crlf)
		return f, nil

	case '*':
		if !top {
			return common.Frame{}, errors.Wrap(ErrMalformed, "nested array")
		}
		n, err := c.length(MaxArrayLen)
		if err != nil {
			return common.Frame{}, err
		}
		if n < 0 {
			return common.Frame{}, errors.Wrapf(ErrMalformed, "invalid array length %d", n)
		}
		var elements []common.Frame
		if build {
			elements = make([]common.Frame, 0, n)
		}
		for i := int64(0); i < n; i++ {
			e, err := c.frame(false, build)
			if err != nil {
				return common.Frame{}, err
			}
			if build {
				elements = append(elements, e)
			}
		}
		if !build {
			return common.Frame{}, nil
		}
		return common.NewArrayFrame(elements...), nil
	}

	return common.Frame{}, errors.Wrapf(ErrMalformed, "unknown frame type byte %q", marker)
}

// line returns the bytes up to the next CRLF and moves the cursor behind it
func (c *cursor) line() ([]byte, error) {
	rest := c.buf[c.pos:]
	i := bytes.Index(rest, crlf)
	if i < 0 {
		if len(rest) > MaxLineLen {
			return nil, errors.Wrapf(ErrMalformed, "line exceeds %d bytes", MaxLineLen)
		}
		return nil, ErrIncomplete
	}
	if i > MaxLineLen {
		return nil, errors.Wrapf(ErrMalformed, "line exceeds %d bytes", MaxLineLen)
	}
	c.pos += i + len(crlf)
	return rest[:i], nil
}

// length reads a decimal length header bounded by max
func (c *cursor) length(max int64) (int64, error) {
	line, err := c.line()
	if err != nil {
		return 0, err
	}
	// the only negative length on the wire is the null marker -1
	if len(line) > 0 && line[0] == '-' && !bytes.Equal(line, nullLength) {
		return 0, errors.Wrapf(ErrMalformed, "invalid length %q", line)
	}
	n, ok := parseDecimal(line)
	if !ok {
		return 0, errors.Wrapf(ErrMalformed, "invalid length %q", line)
	}
	if n > max {
		return 0, errors.Wrapf(ErrMalformed, "length %d exceeds limit %d", n, max)
	}
	return n, nil
}

// parseDecimal parses an optionally signed base 10 integer without allocating
func parseDecimal(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	if b[0] == '-' {
		neg = true
		b = b[1:]
		if len(b) == 0 {
			return 0, false
		}
	}
	var n uint64
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		if n > (math.MaxUint64-9)/10 {
			return 0, false
		}
		n = n*10 + uint64(ch-'0')
		if n > 1<<63 {
			return 0, false
		}
	}
	if neg {
		return -int64(n), true
	}
	if n > 1<<63-1 {
		return 0, false
	}
	return int64(n), true
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode serializes a frame. Nothing is returned if the frame is invalid.
func Encode(f common.Frame) ([]byte, error) {
	return AppendFrame(make([]byte, 0, encodedSize(f)), f)
}

// AppendFrame appends the encoding of f to dst.
// On error dst is returned unchanged.
func AppendFrame(dst []byte, f common.Frame) ([]byte, error) {
	if f.Type == common.FrameTArray {
		// validate first so an invalid array never produces partial output
		for _, e := range f.Array {
			if e.Type == common.FrameTArray {
				return dst, ErrNestedArray
			}
			if err := validateText(e); err != nil {
				return dst, err
			}
		}
		out := append(dst, '*')
		out = strconv.AppendInt(out, int64(len(f.Array)), 10)
		out = append(out, crlf...)
		for _, e := range f.Array {
			var err error
			if out, err = appendSingle(out, e); err != nil {
				return dst, err
			}
		}
		return out, nil
	}

	if err := validateText(f); err != nil {
		return dst, err
	}
	out, err := appendSingle(dst, f)
	if err != nil {
		return dst, err
	}
	return out, nil
}

func appendSingle(dst []byte, f common.Frame) ([]byte, error) {
	switch f.Type {
	case common.FrameTSimple:
		dst = append(dst, '+')
		dst = append(dst, f.Text...)
		return append(dst, crlf...), nil
	case common.FrameTError:
		dst = append(dst, '-')
		dst = append(dst, f.Text...)
		return append(dst, crlf...), nil
	case common.FrameTInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, f.Int, 10)
		return append(dst, crlf...), nil
	case common.FrameTNull:
		return append(dst, "$-1\r\n"...), nil
	case common.FrameTBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, f.Bulk...)
		return append(dst, crlf...), nil
	case common.FrameTArray:
		return dst, ErrNestedArray
	}
	return dst, errors.Errorf("cannot encode frame of type %s", f.Type)
}

func validateText(f common.Frame) error {
	if (f.Type == common.FrameTSimple || f.Type == common.FrameTError) && strings.ContainsAny(f.Text, "\r\n") {
		return ErrInvalidText
	}
	return nil
}

// encodedSize estimates the encoded size to size the output buffer once
func encodedSize(f common.Frame) int {
	switch f.Type {
	case common.FrameTBulk:
		return len(f.Bulk) + 16
	case common.FrameTSimple, common.FrameTError:
		return len(f.Text) + 3
	case common.FrameTArray:
		size := 16
		for _, e := range f.Array {
			size += encodedSize(e)
		}
		return size
	default:
		return 24
	}
}
