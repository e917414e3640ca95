package av1

// ObuType identifies the payload carried by an OBU, per the AV1
// bitstream specification section 6.2.2.
type ObuType uint8

const (
	ObuTypeSequenceHeader    ObuType = 1
	ObuTypeTemporalDelimiter ObuType = 2
	ObuTypeFrameHeader       ObuType = 3
	ObuTypeTileGroup         ObuType = 4
	ObuTypeMetadata          ObuType = 5
	ObuTypeFrame             ObuType = 6
	ObuTypeRedundantFrameHdr ObuType = 7
	ObuTypeTileList          ObuType = 8
	ObuTypePadding           ObuType = 15
)

// ObuExtensionHeader is the optional second byte of an OBU header, present
// when ObuHeader.HasExtension is set.
type ObuExtensionHeader struct {
	TemporalID uint8 // 3 bits
	SpatialID  uint8 // 2 bits
}

func decodeObuExtensionHeader(b byte) ObuExtensionHeader {
	return ObuExtensionHeader{
		TemporalID: (b >> 5) & 0x07,
		SpatialID:  (b >> 3) & 0x03,
	}
}

func (h ObuExtensionHeader) encode() byte {
	return (h.TemporalID&0x07)<<5 | (h.SpatialID&0x03)<<3
}

// ObuHeader is the mandatory first byte of an OBU, plus its optional
// extension byte and optional LEB128 payload size.
type ObuHeader struct {
	Type         ObuType
	HasExtension bool
	HasSize      bool
	Extension    ObuExtensionHeader
}

// Obu is a fully-decoded Open Bitstream Unit: its header plus the raw
// payload bytes (the size field, if present, is not re-stored; it is
// derived from len(Payload) on encode).
type Obu struct {
	Header  ObuHeader
	Payload []byte
}

// DecodeObu parses one OBU from the front of b and returns it along with
// the number of bytes consumed.
func DecodeObu(b []byte) (Obu, int, error) {
	if len(b) < 1 {
		return Obu{}, 0, &UnexpectedEOFError{Expected: 1, Actual: 0}
	}
	first := b[0]
	if first&0x80 != 0 {
		return Obu{}, 0, &InvalidOBUError{Reason: "forbidden bit set"}
	}

	h := ObuHeader{
		Type:         ObuType((first >> 3) & 0x0F),
		HasExtension: first&0x04 != 0,
		HasSize:      first&0x02 != 0,
	}

	pos := 1
	if h.HasExtension {
		if pos >= len(b) {
			return Obu{}, 0, &UnexpectedEOFError{Expected: pos + 1, Actual: len(b)}
		}
		h.Extension = decodeObuExtensionHeader(b[pos])
		pos++
	}

	var payloadLen int
	if h.HasSize {
		size, n, err := DecodeLeb128(b[pos:])
		if err != nil {
			return Obu{}, 0, err
		}
		pos += n
		payloadLen = int(size)
	} else {
		payloadLen = len(b) - pos
	}

	if pos+payloadLen > len(b) {
		return Obu{}, 0, &UnexpectedEOFError{Expected: pos + payloadLen, Actual: len(b)}
	}

	payload := make([]byte, payloadLen)
	copy(payload, b[pos:pos+payloadLen])
	pos += payloadLen

	return Obu{Header: h, Payload: payload}, pos, nil
}

// EncodeObu serializes o, always emitting an explicit LEB128 size field
// (HasSize is forced true on encode: the pipeline's framing always needs
// OBU boundaries to be self-describing).
func EncodeObu(o Obu) []byte {
	first := byte(o.Header.Type&0x0F) << 3
	first |= 0x02 // HasSize
	if o.Header.HasExtension {
		first |= 0x04
	}

	out := make([]byte, 0, 2+Leb128Size(uint64(len(o.Payload)))+len(o.Payload))
	out = append(out, first)
	if o.Header.HasExtension {
		out = append(out, o.Header.Extension.encode())
	}
	out = append(out, EncodeLeb128(uint64(len(o.Payload)))...)
	out = append(out, o.Payload...)
	return out
}
