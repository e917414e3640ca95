// Package ts provides the MPEG-TS helpers the HLS pipeline needs on top of
// a downloaded segment's bytes: per-PID continuity-counter gap detection
// and random-access (keyframe) boundary classification, without decoding
// full PES/NAL payloads. HLS segments are otherwise treated as opaque,
// copy-through byte blobs — the playlist, not the TS stream, defines
// segment boundaries.
package ts

import (
	"context"
	"fmt"
	"io"

	"github.com/asticode/go-astits"
)

// PacketInfo is what the pipeline needs from one demuxed TS packet.
type PacketInfo struct {
	PID               uint16
	ContinuityCounter uint8
	HasPayload        bool
	RandomAccess      bool // adaptation field random_access_indicator: a GOP boundary
}

// GapScanner demuxes a TS byte stream (typically one downloaded segment)
// and reports continuity-counter discontinuities per PID, carrying counter
// state across successive Scan calls so gaps spanning a segment boundary
// are still detected.
type GapScanner struct {
	lastCounter map[uint16]uint8
}

// NewGapScanner constructs an empty scanner.
func NewGapScanner() *GapScanner {
	return &GapScanner{lastCounter: make(map[uint16]uint8)}
}

// Gap describes one observed continuity-counter discontinuity.
type Gap struct {
	PID      uint16
	Expected uint8
	Observed uint8
}

// Scan demuxes segment and returns any continuity gaps found, along with
// the count of random-access (keyframe) packets observed — a proxy for GOP
// boundary density used by telemetry.
func (s *GapScanner) Scan(ctx context.Context, segment io.Reader) (gaps []Gap, randomAccessCount int, err error) {
	dmx := astits.NewDemuxer(ctx, segment)

	for {
		pkt, derr := dmx.NextPacket()
		if derr != nil {
			if derr == astits.ErrNoMorePackets {
				break
			}
			return gaps, randomAccessCount, fmt.Errorf("demuxing TS packet: %w", derr)
		}
		if pkt.Header == nil {
			continue
		}

		pid := pkt.Header.PID
		if pkt.Header.HasAdaptationField && pkt.AdaptationField != nil && pkt.AdaptationField.RandomAccessIndicator {
			randomAccessCount++
		}

		if !pkt.Header.HasPayload {
			continue
		}
		cc := pkt.Header.ContinuityCounter
		if prev, ok := s.lastCounter[pid]; ok {
			expected := (prev + 1) & 0x0F
			if cc != expected && cc != prev {
				gaps = append(gaps, Gap{PID: pid, Expected: expected, Observed: cc})
			}
		}
		s.lastCounter[pid] = cc
	}

	return gaps, randomAccessCount, nil
}
