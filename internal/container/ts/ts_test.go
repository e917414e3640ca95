package ts

import (
	"bytes"
	"context"
	"testing"
)

func tsPacket(pid uint16, cc uint8, payloadStart bool) []byte {
	pkt := make([]byte, 188)
	pkt[0] = 0x47
	pkt[1] = byte(pid >> 8 & 0x1F)
	if payloadStart {
		pkt[1] |= 0x40
	}
	pkt[2] = byte(pid & 0xFF)
	pkt[3] = 0x10 | (cc & 0x0F) // no adaptation field, payload present
	return pkt
}

func TestGapScannerDetectsDiscontinuity(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(tsPacket(256, 0, true))
	buf.Write(tsPacket(256, 1, false))
	buf.Write(tsPacket(256, 5, false)) // skipped 2,3,4: a gap

	s := NewGapScanner()
	gaps, _, err := s.Scan(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d: %+v", len(gaps), gaps)
	}
	if gaps[0].Expected != 2 || gaps[0].Observed != 5 {
		t.Fatalf("unexpected gap: %+v", gaps[0])
	}
}

func TestGapScannerNoFalsePositiveOnContiguous(t *testing.T) {
	var buf bytes.Buffer
	for i := uint8(0); i < 16; i++ {
		buf.Write(tsPacket(256, i, i == 0))
	}

	s := NewGapScanner()
	gaps, _, err := s.Scan(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %+v", gaps)
	}
}
