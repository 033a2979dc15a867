package serializer

import "github.com/ValentinKolb/mKV/rpc/common"

// IRPCSerializer is the interface for frame codecs used by a connection
type IRPCSerializer interface {
	// Encode serializes a Frame into a byte array
	// It returns an error and no bytes if the frame cannot be represented on the wire
	Encode(f common.Frame) ([]byte, error)
	// TryDecode decodes the first frame from the buffer
	// It returns the frame and the number of bytes it occupies,
	// ErrIncomplete if the buffer does not yet hold a whole frame,
	// or an error wrapping ErrMalformed if the bytes violate the protocol.
	// The buffer is never modified.
	TryDecode(buf []byte) (f common.Frame, n int, err error)
}
