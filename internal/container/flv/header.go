package flv

import "fmt"

// signature is the fixed 3-byte FLV magic.
var signature = [3]byte{0x46, 0x4C, 0x56} // "FLV"

// Header is the 9-byte FLV file header. The trailing 4-byte
// PreviousTagSize0 (always zero) is appended by EncodeHeader but is not part
// of this struct.
type Header struct {
	Version  uint8
	HasVideo bool
	HasAudio bool
	// DataOffset as read from the wire. Ignored on encode: EncodeHeader
	// always canonicalizes the emitted offset to FileHeaderSize (9), per the
	// non-canonical-input-framing non-goal.
	DataOffset uint32
}

// SignatureMismatchError is returned when a buffer's first three bytes are
// not "FLV".
type SignatureMismatchError struct {
	Got [3]byte
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("flv: bad signature: got %q, want \"FLV\"", e.Got[:])
}

// DecodeHeader parses the 9-byte FLV file header (not including the trailing
// back-pointer).
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < FileHeaderSize {
		return Header{}, &ShortBufferError{Want: FileHeaderSize, Got: len(b)}
	}
	var got [3]byte
	copy(got[:], b[:3])
	if got != signature {
		return Header{}, &SignatureMismatchError{Got: got}
	}

	flags := b[4]
	return Header{
		Version:    b[3],
		HasVideo:   flags&fileHeaderVideoBit != 0,
		HasAudio:   flags&fileHeaderAudioBit != 0,
		DataOffset: uint32(b[5])<<24 | uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8]),
	}, nil
}

// EncodeHeader serializes h plus the trailing 4-byte zero PreviousTagSize0,
// canonicalizing DataOffset to FileHeaderSize regardless of the input value.
func EncodeHeader(h Header) [FileHeaderSize + PrevTagSizeSize]byte {
	var out [FileHeaderSize + PrevTagSizeSize]byte

	copy(out[0:3], signature[:])
	out[3] = h.Version

	var flags uint8
	if h.HasVideo {
		flags |= fileHeaderVideoBit
	}
	if h.HasAudio {
		flags |= fileHeaderAudioBit
	}
	out[4] = flags

	out[5] = 0
	out[6] = 0
	out[7] = 0
	out[8] = FileHeaderSize

	// out[9:13] stays zero: PreviousTagSize0.
	return out
}
