package hls

import (
	"context"
	"testing"

	"github.com/srec-dev/srec-go/internal/hls/classify"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
)

func runChain(t *testing.T, cfg ChainConfig, units []SegmentUnit) []SegmentUnit {
	t.Helper()
	c := NewChain(cfg)
	sc := shared.NewStreamerContext(context.Background())

	in := make(chan SegmentUnit, len(units)+1)
	out := make(chan SegmentUnit, len(units)*2+4)
	errc := make(chan *shared.PipelineError, 1)

	for _, u := range units {
		in <- u
	}
	close(in)

	c.Run(sc, in, out, errc)

	var got []SegmentUnit
	for u := range out {
		got = append(got, u)
	}
	return got
}

func TestSplitFMP4InitAffinity(t *testing.T) {
	units := []SegmentUnit{
		{Kind: classify.KindInitSegment, Sequence: 0, Data: []byte("init")},
		{Kind: classify.KindMediaSegment, Sequence: 1, Data: []byte("m1"), DurationMs: 6000},
		{Kind: classify.KindMediaSegment, Sequence: 2, Data: []byte("m2"), DurationMs: 6000},
		{Terminator: true},
	}

	got := runChain(t, ChainConfig{}, units)

	if len(got) < 3 {
		t.Fatalf("expected at least 3 output units, got %d: %+v", len(got), got)
	}
	if got[0].Kind != classify.KindInitSegment || !got[0].OpensOutput {
		t.Fatalf("expected init segment to open the output file, got %+v", got[0])
	}
	if !got[0].IsSegmentOpen() {
		t.Fatalf("expected IsSegmentOpen true on the init unit")
	}
}

func TestSplitOnDiscontinuity(t *testing.T) {
	units := []SegmentUnit{
		{Kind: classify.KindTS, Sequence: 0, Data: []byte("a"), DurationMs: 6000},
		{Kind: classify.KindTS, Sequence: 1, Data: []byte("b"), DurationMs: 6000, Discontinuity: true},
		{Terminator: true},
	}

	got := runChain(t, ChainConfig{}, units)

	opens := 0
	for _, u := range got {
		if u.OpensOutput {
			opens++
		}
	}
	if opens != 2 {
		t.Fatalf("expected 2 output-opening units (initial + discontinuity), got %d: %+v", opens, got)
	}
}

func TestLimitTripsRunCap(t *testing.T) {
	units := []SegmentUnit{
		{Kind: classify.KindTS, Sequence: 0, Data: make([]byte, 100), DurationMs: 1000},
		{Kind: classify.KindTS, Sequence: 1, Data: make([]byte, 100), DurationMs: 1000},
		{Kind: classify.KindTS, Sequence: 2, Data: make([]byte, 100), DurationMs: 1000},
	}

	got := runChain(t, ChainConfig{RunMaxSize: 150}, units)

	var terminators int
	for _, u := range got {
		if u.Terminator {
			terminators++
		}
	}
	if terminators != 1 {
		t.Fatalf("expected exactly 1 terminator once the cap trips, got %d: %+v", terminators, got)
	}
	if len(got) >= len(units)+1 {
		t.Fatalf("expected the chain to stop emitting after the cap trips, got %d units: %+v", len(got), got)
	}
}
