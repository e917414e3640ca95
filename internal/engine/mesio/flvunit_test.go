package mesio

import (
	"testing"

	"github.com/srec-dev/srec-go/internal/container/flv"
)

func TestFLVUnitHeaderBytes(t *testing.T) {
	u := flvUnit{data: flv.NewHeaderData(flv.Header{HasVideo: true, HasAudio: true})}
	if !u.IsSegmentOpen() {
		t.Fatalf("expected header unit to open a segment")
	}
	if len(u.Bytes()) != flv.FileHeaderSize+flv.PrevTagSizeSize {
		t.Fatalf("unexpected header byte length: %d", len(u.Bytes()))
	}
}

func TestFLVUnitTagBytes(t *testing.T) {
	tag := flv.Tag{Header: flv.TagHeader{TagType: flv.TagTypeVideo, DataSize: 3, TimestampMs: 100}, Data: []byte{1, 2, 3}}
	u := flvUnit{data: flv.NewTagData(tag)}
	if u.TimestampMs() != 100 {
		t.Fatalf("expected timestamp 100, got %d", u.TimestampMs())
	}
	b := u.Bytes()
	if len(b) != flv.TagHeaderSize+3+flv.PrevTagSizeSize {
		t.Fatalf("unexpected tag byte length: %d", len(b))
	}
}

func TestFLVUnitEndOfSequenceIsTerminator(t *testing.T) {
	u := flvUnit{data: flv.NewEndOfSequenceData(nil)}
	if !u.IsTerminator() {
		t.Fatalf("expected EndOfSequence to be a terminator")
	}
}
