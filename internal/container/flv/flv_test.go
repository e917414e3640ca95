package flv

import (
	"bytes"
	"testing"
)

// TestEncodeTagHeaderWireLayout pins the exact byte layout for a tag header:
// video tag, not filtered, data_size=0x123456, timestamp=0xAABBCCDD, stream_id=0.
func TestEncodeTagHeaderWireLayout(t *testing.T) {
	h := TagHeader{
		TagType:     TagTypeVideo,
		IsFiltered:  false,
		DataSize:    0x123456,
		TimestampMs: 0xAABBCCDD,
		StreamID:    0,
	}

	got, err := EncodeTagHeader(h)
	if err != nil {
		t.Fatalf("EncodeTagHeader: %v", err)
	}

	want := []byte{0x09, 0x12, 0x34, 0x56, 0xBB, 0xCC, 0xDD, 0xAA, 0x00, 0x00, 0x00}
	if !bytes.Equal(got[:], want) {
		t.Fatalf("wire mismatch:\n got  % X\n want % X", got, want)
	}

	back, err := DecodeTagHeader(got[:])
	if err != nil {
		t.Fatalf("DecodeTagHeader: %v", err)
	}
	if back != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", back, h)
	}
}

func TestEncodeTagHeaderRejectsOverflow(t *testing.T) {
	_, err := EncodeTagHeader(TagHeader{DataSize: maxUint24 + 1})
	if err == nil {
		t.Fatal("expected error for data_size overflow")
	}
	var invalidInput *InvalidInputError
	if !asInvalidInput(err, &invalidInput) {
		t.Fatalf("expected *InvalidInputError, got %T: %v", err, err)
	}
}

func asInvalidInput(err error, target **InvalidInputError) bool {
	e, ok := err.(*InvalidInputError)
	if ok {
		*target = e
	}
	return ok
}

func TestDecodeTagHeaderShortBuffer(t *testing.T) {
	_, err := DecodeTagHeader(make([]byte, TagHeaderSize-1))
	if _, ok := err.(*ShortBufferError); !ok {
		t.Fatalf("expected *ShortBufferError, got %T: %v", err, err)
	}
}

// TestHeaderCanonicalization pins Testable Property 1: encoding a decoded
// header always canonicalizes DataOffset to FileHeaderSize, regardless of
// what the source buffer declared.
func TestHeaderCanonicalization(t *testing.T) {
	src := []byte{
		'F', 'L', 'V', 0x01,
		0x05,       // audio+video
		0x00, 0x00, 0x00, 0x0D, // non-canonical data_offset = 13
	}

	h, err := DecodeHeader(src)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !h.HasVideo || !h.HasAudio {
		t.Fatalf("expected both audio and video flags set, got %+v", h)
	}
	if h.DataOffset != 13 {
		t.Fatalf("expected decoded DataOffset 13, got %d", h.DataOffset)
	}

	out := EncodeHeader(h)
	if out[8] != FileHeaderSize {
		t.Fatalf("expected canonicalized data_offset byte %d, got %d", FileHeaderSize, out[8])
	}
	for _, b := range out[FileHeaderSize:] {
		if b != 0 {
			t.Fatalf("expected zero PreviousTagSize0, got % X", out[FileHeaderSize:])
		}
	}
}

func TestDecodeHeaderBadSignature(t *testing.T) {
	bad := []byte{'B', 'A', 'D', 0x01, 0x05, 0, 0, 0, 9}
	_, err := DecodeHeader(bad)
	if _, ok := err.(*SignatureMismatchError); !ok {
		t.Fatalf("expected *SignatureMismatchError, got %T: %v", err, err)
	}
}

func TestDataSizeVariants(t *testing.T) {
	tag := Tag{
		Header: TagHeader{TagType: TagTypeAudio, DataSize: 4},
		Data:   []byte{1, 2, 3, 4},
	}
	d := NewTagData(tag)
	if !d.IsTag() || d.IsHeader() || d.IsEndOfSequence() {
		t.Fatalf("expected tag variant, got %+v", d)
	}
	if d.Size() != TagHeaderSize+4+PrevTagSizeSize {
		t.Fatalf("unexpected tag Size(): %d", d.Size())
	}

	hd := NewHeaderData(Header{Version: 1, HasVideo: true})
	if !hd.IsHeader() || hd.Size() != FileHeaderSize+PrevTagSizeSize {
		t.Fatalf("unexpected header variant: %+v", hd)
	}

	eos := NewEndOfSequenceData([]byte{0xAA, 0xBB})
	if !eos.IsEndOfSequence() || eos.Size() != 2+PrevTagSizeSize {
		t.Fatalf("unexpected eos variant: %+v", eos)
	}
}

func TestIsKeyframe(t *testing.T) {
	keyframe := NewTagData(Tag{
		Header: TagHeader{TagType: TagTypeVideo},
		Data:   []byte{0x17, 0x00},
	})
	if !keyframe.IsKeyframe() {
		t.Fatal("expected frame type 1 to be detected as keyframe")
	}

	interframe := NewTagData(Tag{
		Header: TagHeader{TagType: TagTypeVideo},
		Data:   []byte{0x27, 0x00},
	})
	if interframe.IsKeyframe() {
		t.Fatal("expected frame type 2 to not be a keyframe")
	}

	audio := NewTagData(Tag{Header: TagHeader{TagType: TagTypeAudio}, Data: []byte{0x17}})
	if audio.IsKeyframe() {
		t.Fatal("audio tags are never keyframes")
	}
}
