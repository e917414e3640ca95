// Package flv implements the byte-level FLV container framing primitives:
// the file header, the 11-byte tag header, and the back-pointer trailer.
// It encodes and decodes exactly the wire layout; it does not interpret
// tag bodies (audio/video/script payloads).
package flv

import (
	"encoding/binary"
	"fmt"
)

// TagType identifies the kind of payload an FLV tag carries.
type TagType uint8

const (
	TagTypeAudio  TagType = 8
	TagTypeVideo  TagType = 9
	TagTypeScript TagType = 18
)

func (t TagType) String() string {
	switch t {
	case TagTypeAudio:
		return "audio"
	case TagTypeVideo:
		return "video"
	case TagTypeScript:
		return "script"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Sizes of the fixed-width FLV wire structures.
const (
	FileHeaderSize     = 9
	PrevTagSizeSize    = 4
	TagHeaderSize      = 11
	maxUint24          = 1<<24 - 1
	tagFilteredBit     = 0x20
	tagTypeMask        = 0x1F
	fileHeaderVideoBit = 0x01
	fileHeaderAudioBit = 0x04
)

// TagHeader is the fixed 11-byte prefix of every FLV tag.
type TagHeader struct {
	TagType     TagType
	IsFiltered  bool
	DataSize    uint32 // 24-bit on the wire
	TimestampMs uint32 // 24-bit low + 8-bit extended high byte, recombined
	StreamID    uint32 // 24-bit on the wire, conventionally 0
}

// Size returns the total on-wire size of a tag with this header: the
// 11-byte header, the body, and the trailing 4-byte back-pointer.
func (h TagHeader) Size() int {
	return TagHeaderSize + int(h.DataSize) + PrevTagSizeSize
}

// EncodeTagHeader serializes h into exactly TagHeaderSize bytes.
// Returns InvalidInputError if DataSize or StreamID exceed the 24-bit wire range.
func EncodeTagHeader(h TagHeader) ([TagHeaderSize]byte, error) {
	var out [TagHeaderSize]byte

	if h.DataSize > maxUint24 {
		return out, &InvalidInputError{Field: "data_size", Value: uint64(h.DataSize), Max: maxUint24}
	}
	if h.StreamID > maxUint24 {
		return out, &InvalidInputError{Field: "stream_id", Value: uint64(h.StreamID), Max: maxUint24}
	}

	typeByte := uint8(h.TagType) & tagTypeMask
	if h.IsFiltered {
		typeByte |= tagFilteredBit
	}
	out[0] = typeByte

	out[1] = byte(h.DataSize >> 16)
	out[2] = byte(h.DataSize >> 8)
	out[3] = byte(h.DataSize)

	out[4] = byte(h.TimestampMs >> 16)
	out[5] = byte(h.TimestampMs >> 8)
	out[6] = byte(h.TimestampMs)
	out[7] = byte(h.TimestampMs >> 24)

	out[8] = byte(h.StreamID >> 16)
	out[9] = byte(h.StreamID >> 8)
	out[10] = byte(h.StreamID)

	return out, nil
}

// DecodeTagHeader parses an 11-byte buffer into a TagHeader, recombining the
// 24-bit low timestamp with its 8-bit extended high byte.
func DecodeTagHeader(b []byte) (TagHeader, error) {
	if len(b) < TagHeaderSize {
		return TagHeader{}, &ShortBufferError{Want: TagHeaderSize, Got: len(b)}
	}

	typeByte := b[0]
	h := TagHeader{
		TagType:    TagType(typeByte & tagTypeMask),
		IsFiltered: typeByte&tagFilteredBit != 0,
		DataSize:   uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		StreamID:   uint32(b[8])<<16 | uint32(b[9])<<8 | uint32(b[10]),
	}
	h.TimestampMs = uint32(b[7])<<24 | uint32(b[4])<<16 | uint32(b[5])<<8 | uint32(b[6])

	return h, nil
}

// DecodePrevTagSize parses the 4-byte big-endian back-pointer trailer.
func DecodePrevTagSize(b []byte) (uint32, error) {
	if len(b) < PrevTagSizeSize {
		return 0, &ShortBufferError{Want: PrevTagSizeSize, Got: len(b)}
	}
	return binary.BigEndian.Uint32(b[:PrevTagSizeSize]), nil
}

// EncodePrevTagSize serializes a back-pointer value.
func EncodePrevTagSize(size uint32) [PrevTagSizeSize]byte {
	var out [PrevTagSizeSize]byte
	binary.BigEndian.PutUint32(out[:], size)
	return out
}

// ExpectedBackPointer returns the back-pointer value a tag with this header
// must carry: 11 (the header) plus the body length.
func (h TagHeader) ExpectedBackPointer() uint32 {
	return TagHeaderSize + h.DataSize
}

// InvalidInputError is returned when an encode input exceeds the wire's
// fixed-width field range.
type InvalidInputError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("flv: %s value %d exceeds 24-bit limit %d", e.Field, e.Value, e.Max)
}

// ShortBufferError is returned when a decode input is shorter than the
// fixed-width structure it is meant to hold.
type ShortBufferError struct {
	Want, Got int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("flv: short buffer: want %d bytes, got %d", e.Want, e.Got)
}
