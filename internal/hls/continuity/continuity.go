// Package continuity repairs the per-PID continuity counters and PTS/DTS
// baseline of an MPEG-TS segment after the reorder state machine has
// skipped a gap: it demuxes the segment with mediacommon's PAT/PMT-aware
// reader and re-muxes it through a fresh writer, which recomputes
// self-consistent counters and timestamps from scratch rather than
// patching the stale ones in place.
package continuity

import (
	"errors"
	"fmt"
	"io"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
)

// Repairer carries the accumulated PTS/DTS offset across a run's segments.
// It is not safe for concurrent use; a run's segments are repaired one at a
// time, in sequence order.
type Repairer struct {
	offsetTicks int64 // 90kHz ticks added to every PTS/DTS emitted from here on
}

// NewRepairer constructs a Repairer with no accumulated offset.
func NewRepairer() *Repairer {
	return &Repairer{}
}

// RecordGap extends the accumulated offset by skippedTicks (90kHz ticks),
// the estimated presentation-time span of a run of segments the reorder
// state machine skipped. Every segment repaired after this call has its
// timestamps shifted so playback continues smoothly across the gap.
func (r *Repairer) RecordGap(skippedTicks int64) {
	if skippedTicks > 0 {
		r.offsetTicks += skippedTicks
	}
}

// Repair demuxes segment via mpegts.Reader and re-muxes its tracks into out
// via a fresh mpegts.Writer, shifting every PTS/DTS by the Repairer's
// current accumulated offset. The rewritten segment has its own clean
// continuity counters and PCR baseline, independent of whatever the source
// segment carried.
func (r *Repairer) Repair(segment io.Reader, out io.Writer) error {
	reader := &mpegts.Reader{R: segment}
	if err := reader.Initialize(); err != nil {
		return fmt.Errorf("continuity: initializing mpegts reader: %w", err)
	}
	reader.OnDecodeError(func(error) {}) // best-effort repair; transport noise is not fatal

	sourceTracks := reader.Tracks()
	writeTracks := make([]*mpegts.Track, len(sourceTracks))
	for i, t := range sourceTracks {
		writeTracks[i] = &mpegts.Track{PID: t.PID, Codec: t.Codec}
	}

	writer := &mpegts.Writer{W: out, Tracks: writeTracks}
	if err := writer.Initialize(); err != nil {
		return fmt.Errorf("continuity: initializing mpegts writer: %w", err)
	}

	for i, t := range sourceTracks {
		wt := writeTracks[i]
		switch t.Codec.(type) {
		case *mpegts.CodecH264:
			reader.OnDataH264(t, func(pts, dts int64, au [][]byte) error {
				return writer.WriteH264(wt, pts+r.offsetTicks, dts+r.offsetTicks, au)
			})
		case *mpegts.CodecH265:
			reader.OnDataH265(t, func(pts, dts int64, au [][]byte) error {
				return writer.WriteH265(wt, pts+r.offsetTicks, dts+r.offsetTicks, au)
			})
		case *mpegts.CodecMPEG4Audio:
			reader.OnDataMPEG4Audio(t, func(pts int64, aus [][]byte) error {
				return writer.WriteMPEG4Audio(wt, pts+r.offsetTicks, aus)
			})
		case *mpegts.CodecAC3:
			reader.OnDataAC3(t, func(pts int64, frame []byte) error {
				return writer.WriteAC3(wt, pts+r.offsetTicks, frame)
			})
		case *mpegts.CodecEAC3:
			reader.OnDataEAC3(t, func(pts int64, frame []byte) error {
				return writer.WriteEAC3(wt, pts+r.offsetTicks, frame)
			})
		case *mpegts.CodecMPEG1Audio:
			reader.OnDataMPEG1Audio(t, func(pts int64, frames [][]byte) error {
				return writer.WriteMPEG1Audio(wt, pts+r.offsetTicks, frames)
			})
		case *mpegts.CodecOpus:
			reader.OnDataOpus(t, func(pts int64, packets [][]byte) error {
				return writer.WriteOpus(wt, pts+r.offsetTicks, packets)
			})
		}
	}

	for {
		if err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("continuity: reading segment: %w", err)
		}
	}
}
