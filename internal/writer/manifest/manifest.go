// Package manifest produces the JSON sidecar describing everything a
// completed (or in-progress) recording run wrote: its segment list and
// lifecycle events, optionally compressed for long-term archival.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Compression selects the sidecar's on-disk encoding.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionXZ    Compression = "xz"
	CompressionBzip2 Compression = "bzip2"
)

// SegmentRecord is one finalized segment file in a run.
type SegmentRecord struct {
	Sequence   int       `json:"sequence"`
	Path       string    `json:"path"`
	Bytes      int64     `json:"bytes"`
	DurationMs int64     `json:"duration_ms"`
	ClosedAt   time.Time `json:"closed_at"`
}

// EventRecord is one lifecycle or failure event observed during the run.
type EventRecord struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message,omitempty"`
}

// Manifest is the complete record of one recording run.
type Manifest struct {
	SourceURL string          `json:"source_url"`
	Engine    string          `json:"engine"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
	Segments  []SegmentRecord `json:"segments"`
	Events    []EventRecord   `json:"events,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// TotalBytes sums every segment's byte count.
func (m Manifest) TotalBytes() int64 {
	var total int64
	for _, s := range m.Segments {
		total += s.Bytes
	}
	return total
}

// Write serializes m as JSON to w, compressing per compression.
func Write(w io.Writer, m Manifest, compression Compression) error {
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	switch compression {
	case CompressionXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("creating xz writer: %w", err)
		}
		if _, err := xw.Write(body); err != nil {
			_ = xw.Close()
			return fmt.Errorf("writing xz manifest: %w", err)
		}
		return xw.Close()

	case CompressionBzip2:
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return fmt.Errorf("creating bzip2 writer: %w", err)
		}
		if _, err := bw.Write(body); err != nil {
			_ = bw.Close()
			return fmt.Errorf("writing bzip2 manifest: %w", err)
		}
		return bw.Close()

	default:
		_, err := w.Write(body)
		return err
	}
}

// Read deserializes a manifest previously written by Write, decompressing
// per compression.
func Read(r io.Reader, compression Compression) (Manifest, error) {
	var body []byte
	var err error

	switch compression {
	case CompressionXZ:
		xr, xerr := xz.NewReader(r)
		if xerr != nil {
			return Manifest{}, fmt.Errorf("creating xz reader: %w", xerr)
		}
		body, err = io.ReadAll(xr)

	case CompressionBzip2:
		br, berr := bzip2.NewReader(r, nil)
		if berr != nil {
			return Manifest{}, fmt.Errorf("creating bzip2 reader: %w", berr)
		}
		defer br.Close()
		body, err = io.ReadAll(br)

	default:
		body, err = io.ReadAll(r)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest body: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return m, nil
}

// CompressionFromExt maps a sidecar file extension (".json", ".json.xz",
// ".json.bz2") to the Compression it implies.
func CompressionFromExt(ext string) Compression {
	switch ext {
	case ".xz":
		return CompressionXZ
	case ".bz2":
		return CompressionBzip2
	default:
		return CompressionNone
	}
}
