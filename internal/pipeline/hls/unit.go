// Package hls implements the HLS operator chain: Split -> Limit, operating
// on whole downloaded segments rather than individual container bytes
// (the HLS playlist, not the pipeline, defines segment content).
package hls

import "github.com/srec-dev/srec-go/internal/hls/classify"

// SegmentUnit is one classified HLS segment flowing through the chain.
type SegmentUnit struct {
	Kind          classify.Kind
	Sequence      uint64
	Discontinuity bool
	Data          []byte
	DurationMs    int64

	// OpensOutput is set by Split on the first unit of a new output file
	// (segment-boundary-only: this is always also an upstream segment
	// boundary, never mid-segment).
	OpensOutput bool
	// Terminator marks the run's final unit; Bytes is empty.
	Terminator bool
}

// IsInit reports whether this unit is an fMP4 init segment.
func (u SegmentUnit) IsInit() bool { return u.Kind == classify.KindInitSegment }

// IsSegmentOpen satisfies writer.Unit.
func (u SegmentUnit) IsSegmentOpen() bool { return u.OpensOutput }

// IsTerminator satisfies writer.Unit.
func (u SegmentUnit) IsTerminator() bool { return u.Terminator }

// Bytes satisfies writer.Unit.
func (u SegmentUnit) Bytes() []byte { return u.Data }

// TimestampMs satisfies writer.Unit; HLS segments carry no meaningful
// per-unit timestamp, so the writer falls back to wall-clock duration.
func (u SegmentUnit) TimestampMs() uint32 { return 0 }
