package av1

import (
	"bytes"
	"math"
	"testing"
)

func TestLeb128KnownVectors(t *testing.T) {
	if got := EncodeLeb128(127); !bytes.Equal(got, []byte{0x7F}) {
		t.Fatalf("encode(127) = % X, want [7F]", got)
	}
	if got := EncodeLeb128(128); !bytes.Equal(got, []byte{0x80, 0x01}) {
		t.Fatalf("encode(128) = % X, want [80 01]", got)
	}
}

func TestLeb128DecodeOverflow(t *testing.T) {
	overflow := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x02}
	_, _, err := DecodeLeb128(overflow)
	if _, ok := err.(*Leb128OverflowError); !ok {
		t.Fatalf("expected Leb128OverflowError, got %T: %v", err, err)
	}
}

func TestLeb128RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 16383, 16384, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		enc := EncodeLeb128(v)
		if len(enc) != Leb128Size(v) {
			t.Fatalf("Leb128Size(%d) = %d, but EncodeLeb128 produced %d bytes", v, Leb128Size(v), len(enc))
		}
		got, n, err := DecodeLeb128(enc)
		if err != nil {
			t.Fatalf("DecodeLeb128(%x): %v", enc, err)
		}
		if got != v {
			t.Fatalf("round-trip(%d) = %d", v, got)
		}
		if n != len(enc) {
			t.Fatalf("DecodeLeb128 consumed %d bytes, want %d", n, len(enc))
		}
	}
}

func TestObuRoundTrip(t *testing.T) {
	o := Obu{
		Header:  ObuHeader{Type: ObuTypeSequenceHeader, HasExtension: true, Extension: ObuExtensionHeader{TemporalID: 1, SpatialID: 2}},
		Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
	enc := EncodeObu(o)

	decoded, n, err := DecodeObu(enc)
	if err != nil {
		t.Fatalf("DecodeObu: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d bytes, want %d", n, len(enc))
	}
	if decoded.Header.Type != o.Header.Type {
		t.Fatalf("type mismatch: got %v want %v", decoded.Header.Type, o.Header.Type)
	}
	if !decoded.Header.HasExtension || decoded.Header.Extension != o.Header.Extension {
		t.Fatalf("extension mismatch: got %+v want %+v", decoded.Header.Extension, o.Header.Extension)
	}
	if !bytes.Equal(decoded.Payload, o.Payload) {
		t.Fatalf("payload mismatch: got % X want % X", decoded.Payload, o.Payload)
	}
}

func TestObuForbiddenBit(t *testing.T) {
	_, _, err := DecodeObu([]byte{0x80})
	if _, ok := err.(*InvalidOBUError); !ok {
		t.Fatalf("expected InvalidOBUError, got %T: %v", err, err)
	}
}

func TestCodecConfigurationRecordRoundTrip(t *testing.T) {
	r := CodecConfigurationRecord{
		SeqProfile:         0,
		SeqLevelIdx0:       8,
		HighBitdepth:       true,
		ChromaSubsamplingX: 1,
		ChromaSubsamplingY: 1,
		ConfigOBUs:         []byte{0x0A, 0x0B, 0x0C},
	}
	enc := EncodeCodecConfigurationRecord(r)
	got, err := DecodeCodecConfigurationRecord(enc)
	if err != nil {
		t.Fatalf("DecodeCodecConfigurationRecord: %v", err)
	}
	if got.Marker != 1 || got.Version != 1 {
		t.Fatalf("expected marker=1 version=1, got %+v", got)
	}
	if got.SeqLevelIdx0 != 8 || !got.HighBitdepth {
		t.Fatalf("field mismatch: %+v", got)
	}
	if !bytes.Equal(got.ConfigOBUs, r.ConfigOBUs) {
		t.Fatalf("ConfigOBUs mismatch: got % X want % X", got.ConfigOBUs, r.ConfigOBUs)
	}
}

func TestDecodeCodecConfigurationRecordShort(t *testing.T) {
	_, err := DecodeCodecConfigurationRecord([]byte{0x01, 0x02})
	if _, ok := err.(*UnexpectedEOFError); !ok {
		t.Fatalf("expected UnexpectedEOFError, got %T: %v", err, err)
	}
}

// bitWriter is a tiny MSB-first bit writer used only to build a synthetic
// sequence header for ParseSequenceHeader's test.
type bitWriter struct {
	bits []bool
}

func (w *bitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, (v>>uint(i))&1 == 1)
	}
}

func (w *bitWriter) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestParseSequenceHeaderReducedStillPicture(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(0, 3) // seq_profile
	w.writeBits(1, 1) // still_picture
	w.writeBits(1, 1) // reduced_still_picture_header
	w.writeBits(0, 5) // seq_level_idx[0]
	w.writeBits(10, 4) // frame_width_bits_minus_1 = 10 -> 11 bits
	w.writeBits(10, 4) // frame_height_bits_minus_1 = 10 -> 11 bits
	w.writeBits(1919, 11) // max_frame_width_minus_1 -> width 1920
	w.writeBits(1079, 11) // max_frame_height_minus_1 -> height 1080

	h, err := ParseSequenceHeader(w.bytes())
	if err != nil {
		t.Fatalf("ParseSequenceHeader: %v", err)
	}
	if h.MaxFrameWidth != 1920 || h.MaxFrameHeight != 1080 {
		t.Fatalf("got %dx%d, want 1920x1080", h.MaxFrameWidth, h.MaxFrameHeight)
	}
	if !h.StillPicture {
		t.Fatal("expected still_picture flag to be set")
	}
}

func TestParseSequenceHeaderEmptyPayload(t *testing.T) {
	_, err := ParseSequenceHeader(nil)
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
}
