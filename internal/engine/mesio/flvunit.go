package mesio

import (
	"github.com/srec-dev/srec-go/internal/container/flv"
	"github.com/srec-dev/srec-go/internal/writer"
)

// flvUnit adapts flv.Data to writer.Unit, re-serializing headers and
// back-pointers so the writer only ever appends opaque bytes.
type flvUnit struct {
	data flv.Data
}

var _ writer.Unit = flvUnit{}

func (u flvUnit) IsSegmentOpen() bool { return u.data.IsHeader() }
func (u flvUnit) IsTerminator() bool  { return u.data.IsEndOfSequence() }

func (u flvUnit) TimestampMs() uint32 {
	if u.data.IsTag() {
		return u.data.Tag.Header.TimestampMs
	}
	return 0
}

func (u flvUnit) Bytes() []byte {
	switch u.data.Kind {
	case flv.KindHeader:
		encoded := flv.EncodeHeader(u.data.FileHeader)
		return encoded[:]
	case flv.KindTag:
		headerBytes, err := flv.EncodeTagHeader(u.data.Tag.Header)
		if err != nil {
			// The operator chain only ever produces headers decoded from a
			// valid wire tag or synthesized within documented size limits;
			// a post-chain encode failure here indicates a chain defect,
			// not a runtime condition callers can recover from.
			return nil
		}
		out := make([]byte, 0, len(headerBytes)+len(u.data.Tag.Data)+flv.PrevTagSizeSize)
		out = append(out, headerBytes[:]...)
		out = append(out, u.data.Tag.Data...)
		backPointer := flv.EncodePrevTagSize(uint32(flv.TagHeaderSize + len(u.data.Tag.Data)))
		out = append(out, backPointer[:]...)
		return out
	case flv.KindEndOfSequence:
		out := make([]byte, 0, len(u.data.EndOfSequence)+flv.PrevTagSizeSize)
		out = append(out, u.data.EndOfSequence...)
		backPointer := flv.EncodePrevTagSize(0)
		out = append(out, backPointer[:]...)
		return out
	default:
		return nil
	}
}
