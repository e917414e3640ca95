package flv

import "fmt"

// Tag is a fully-decoded FLV tag: its header plus the raw body bytes. The
// trailing back-pointer is not stored here; Size recomputes the canonical
// value. The FLV reader reads the on-wire back-pointer and discards it
// without comparing it to this value.
type Tag struct {
	Header TagHeader
	Data   []byte
}

// Size returns the tag's total on-wire size: header + body + back-pointer.
func (t Tag) Size() int {
	return TagHeaderSize + len(t.Data) + PrevTagSizeSize
}

// Kind discriminates the variants of Data.
type Kind int

const (
	KindHeader Kind = iota
	KindTag
	KindEndOfSequence
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "Header"
	case KindTag:
		return "Tag"
	case KindEndOfSequence:
		return "EndOfSequence"
	default:
		return "Unknown"
	}
}

// Data is the sum type the FLV framed reader and operator chain exchange:
// a file header, a decoded tag, or an end-of-sequence marker carrying any
// trailing bytes observed after the last tag.
type Data struct {
	Kind          Kind
	FileHeader    Header
	Tag           Tag
	EndOfSequence []byte
}

// NewHeaderData wraps a file header.
func NewHeaderData(h Header) Data { return Data{Kind: KindHeader, FileHeader: h} }

// NewTagData wraps a decoded tag.
func NewTagData(t Tag) Data { return Data{Kind: KindTag, Tag: t} }

// NewEndOfSequenceData wraps trailing bytes observed at stream end.
func NewEndOfSequenceData(trailer []byte) Data {
	return Data{Kind: KindEndOfSequence, EndOfSequence: trailer}
}

// Size returns the on-wire size of the wrapped value, per the variant's own
// Size computation, plus any trailer bytes for EndOfSequence.
func (d Data) Size() int {
	switch d.Kind {
	case KindHeader:
		return FileHeaderSize + PrevTagSizeSize
	case KindTag:
		return d.Tag.Size()
	case KindEndOfSequence:
		return len(d.EndOfSequence) + PrevTagSizeSize
	default:
		return 0
	}
}

func (d Data) IsHeader() bool        { return d.Kind == KindHeader }
func (d Data) IsTag() bool           { return d.Kind == KindTag }
func (d Data) IsEndOfSequence() bool { return d.Kind == KindEndOfSequence }

// IsKeyframe reports whether d is a video tag whose first body byte marks an
// AVC/HEVC/AV1 keyframe (frame type nibble == 1) in the legacy FLV video
// tag layout, or the corresponding Enhanced-RTMP keyframe bit.
func (d Data) IsKeyframe() bool {
	if d.Kind != KindTag || d.Tag.Header.TagType != TagTypeVideo || len(d.Tag.Data) == 0 {
		return false
	}
	frameType := (d.Tag.Data[0] >> 4) & 0x0F
	if d.Tag.Data[0]&0x80 != 0 {
		// Enhanced-RTMP: bit 7 flags the extended header and bits 6-4 hold
		// the frame type.
		frameType = (d.Tag.Data[0] >> 4) & 0x07
	}
	return frameType == 1
}

// Description renders a short human-readable summary, primarily for logging
// and test failure messages.
func (d Data) Description() string {
	switch d.Kind {
	case KindHeader:
		return "Header"
	case KindTag:
		return fmt.Sprintf("%s@%d", d.Tag.Header.TagType, d.Tag.Header.TimestampMs)
	case KindEndOfSequence:
		return "EndOfSequence"
	default:
		return "Unknown"
	}
}
