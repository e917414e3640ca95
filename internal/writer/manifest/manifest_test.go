package manifest

import (
	"bytes"
	"testing"
	"time"
)

func sampleManifest() Manifest {
	return Manifest{
		SourceURL: "https://example.invalid/live.m3u8",
		Engine:    "mesio-hls",
		StartedAt: time.Unix(1000, 0).UTC(),
		EndedAt:   time.Unix(2000, 0).UTC(),
		Segments: []SegmentRecord{
			{Sequence: 0, Path: "stream_0000.ts", Bytes: 1024, DurationMs: 6000, ClosedAt: time.Unix(1006, 0).UTC()},
			{Sequence: 1, Path: "stream_0001.ts", Bytes: 2048, DurationMs: 6000, ClosedAt: time.Unix(1012, 0).UTC()},
		},
		Events: []EventRecord{
			{At: time.Unix(1000, 0).UTC(), Kind: "opened"},
		},
	}
}

func TestWriteReadRoundTripUncompressed(t *testing.T) {
	m := sampleManifest()
	var buf bytes.Buffer
	if err := Write(&buf, m, CompressionNone); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, CompressionNone)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.TotalBytes() != 3072 {
		t.Fatalf("expected total bytes 3072, got %d", got.TotalBytes())
	}
	if len(got.Segments) != 2 || got.Segments[1].Path != "stream_0001.ts" {
		t.Fatalf("unexpected segments: %+v", got.Segments)
	}
}

func TestWriteReadRoundTripXZ(t *testing.T) {
	m := sampleManifest()
	var buf bytes.Buffer
	if err := Write(&buf, m, CompressionXZ); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, CompressionXZ)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.SourceURL != m.SourceURL || got.TotalBytes() != m.TotalBytes() {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestWriteReadRoundTripBzip2(t *testing.T) {
	m := sampleManifest()
	var buf bytes.Buffer
	if err := Write(&buf, m, CompressionBzip2); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, CompressionBzip2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Engine != m.Engine || len(got.Events) != 1 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCompressionFromExt(t *testing.T) {
	cases := map[string]Compression{
		".xz":  CompressionXZ,
		".bz2": CompressionBzip2,
		".gz":  CompressionNone,
		"":     CompressionNone,
	}
	for ext, want := range cases {
		if got := CompressionFromExt(ext); got != want {
			t.Errorf("CompressionFromExt(%q) = %q, want %q", ext, got, want)
		}
	}
}
