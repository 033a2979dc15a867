// Package serializer implements the wire codec of mKV, a subset of the
// RESP protocol. It converts between common.Frame values and bytes.
//
// The package focuses on:
//   - Incremental decoding of frames from a growing byte buffer
//   - Strict detection of malformed or truncated input
//   - Encoding frames without partial output on invalid input
//
// Wire Format:
//
//	Simple   +<text>\r\n
//	Error    -<text>\r\n
//	Integer  :<decimal>\r\n
//	Null     $-1\r\n
//	Bulk     $<byte-length>\r\n<raw bytes>\r\n
//	Array    *<count>\r\n followed by count non-array frames
//
// Decoding is done in two passes. Check validates the buffered bytes and computes
// the exact length of the first frame without allocating. Only if that succeeds
// Parse walks the same bytes again and builds the frame. TryDecode combines both,
// so a caller never consumes a part of a frame:
//
//	f, n, err := serializer.TryDecode(buf)
//	switch {
//	case errors.Is(err, serializer.ErrIncomplete):
//	  // read more bytes and try again
//	case err != nil:
//	  // protocol violation, close the connection
//	default:
//	  buf = buf[n:]
//	}
//
// Thread Safety:
//
//	The codec is stateless and safe for concurrent use.
package serializer
