package continuity

import (
	"bytes"
	"testing"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
)

func buildSegment(t *testing.T, pts, dts int64) []byte {
	t.Helper()

	videoTrack := &mpegts.Track{PID: 256, Codec: &mpegts.CodecH264{}}
	audioTrack := &mpegts.Track{PID: 257, Codec: &mpegts.CodecMPEG4Audio{
		Config: mpeg4audio.AudioSpecificConfig{
			Type:         mpeg4audio.ObjectTypeAACLC,
			SampleRate:   48000,
			ChannelCount: 2,
		},
	}}

	var buf bytes.Buffer
	w := &mpegts.Writer{W: &buf, Tracks: []*mpegts.Track{videoTrack, audioTrack}}
	if err := w.Initialize(); err != nil {
		t.Fatalf("initializing writer: %v", err)
	}

	idr := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x00, 0x33, 0xff}
	if err := w.WriteH264(videoTrack, pts, dts, [][]byte{idr}); err != nil {
		t.Fatalf("WriteH264: %v", err)
	}
	aac := []byte{0x21, 0x10, 0x04, 0x60, 0x8c, 0x1c}
	if err := w.WriteMPEG4Audio(audioTrack, pts, [][]byte{aac}); err != nil {
		t.Fatalf("WriteMPEG4Audio: %v", err)
	}

	return buf.Bytes()
}

func TestRepairPassesThroughWithoutGap(t *testing.T) {
	segment := buildSegment(t, 90000, 90000)

	r := NewRepairer()
	var out bytes.Buffer
	if err := r.Repair(bytes.NewReader(segment), &out); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected repaired output")
	}
	if out.Len()%188 != 0 {
		t.Errorf("repaired output length %d is not a multiple of 188", out.Len())
	}
}

func TestRepairShiftsTimestampsAfterGap(t *testing.T) {
	segment := buildSegment(t, 90000, 90000)

	r := NewRepairer()
	r.RecordGap(5 * 90000)

	var out bytes.Buffer
	if err := r.Repair(bytes.NewReader(segment), &out); err != nil {
		t.Fatalf("Repair: %v", err)
	}

	var gotPTS int64 = -1
	reader := &mpegts.Reader{R: bytes.NewReader(out.Bytes())}
	if err := reader.Initialize(); err != nil {
		t.Fatalf("re-reading repaired segment: %v", err)
	}
	for _, tr := range reader.Tracks() {
		if _, ok := tr.Codec.(*mpegts.CodecH264); ok {
			reader.OnDataH264(tr, func(pts, dts int64, au [][]byte) error {
				gotPTS = pts
				return nil
			})
		}
	}
	for {
		if err := reader.Read(); err != nil {
			break
		}
	}
	if gotPTS != 90000+5*90000 {
		t.Fatalf("got shifted pts %d, want %d", gotPTS, 90000+5*90000)
	}
}

func TestRepairAccumulatesOffsetAcrossSegments(t *testing.T) {
	r := NewRepairer()
	r.RecordGap(1000)
	r.RecordGap(2000)
	if r.offsetTicks != 3000 {
		t.Fatalf("got accumulated offset %d, want 3000", r.offsetTicks)
	}
}
