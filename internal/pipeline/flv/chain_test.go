package flv

import (
	"context"
	"testing"
	"time"

	"github.com/srec-dev/srec-go/internal/container/flv"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
)

func videoTag(ts uint32, keyframe bool) flv.Data {
	frameType := byte(0x20) // inter-frame
	if keyframe {
		frameType = 0x10
	}
	body := []byte{frameType | 0x07, 0x01, 0, 0, 0} // AVC, NALU unit (not seq header)
	return flv.NewTagData(flv.Tag{
		Header: flv.TagHeader{TagType: flv.TagTypeVideo, DataSize: uint32(len(body)), TimestampMs: ts},
		Data:   body,
	})
}

func videoInitTag(ts uint32) flv.Data {
	body := []byte{0x17, 0x00, 0, 0, 0, 0xAA, 0xBB}
	return flv.NewTagData(flv.Tag{
		Header: flv.TagHeader{TagType: flv.TagTypeVideo, DataSize: uint32(len(body)), TimestampMs: ts},
		Data:   body,
	})
}

// buildSyntheticStream produces a 180-second stream: a header, a video-init
// tag, then keyframes every 2s for 180s (90 GOPs), one tag per GOP for
// simplicity.
func buildSyntheticStream() []flv.Data {
	var out []flv.Data
	out = append(out, flv.NewHeaderData(flv.Header{Version: 1, HasVideo: true}))
	out = append(out, videoInitTag(0))
	for sec := 0; sec < 180; sec += 2 {
		out = append(out, videoTag(uint32(sec*1000), true))
	}
	return out
}

func TestSplitOnDuration(t *testing.T) {
	stream := buildSyntheticStream()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc := shared.NewStreamerContext(ctx)

	chain := NewChain(ChainConfig{
		TimingRepairStrategy: TimingRepairRelaxed,
		MaxSegmentDuration:   60_000,
	})

	in := make(chan flv.Data, len(stream))
	out := make(chan flv.Data, len(stream)*2)
	errc := make(chan *shared.PipelineError, 1)

	for _, d := range stream {
		in <- d
	}
	close(in)

	done := make(chan struct{})
	go func() {
		chain.Run(sc, in, out, errc)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain did not finish")
	}

	var results []flv.Data
	for d := range out {
		results = append(results, d)
	}

	select {
	case err := <-errc:
		t.Fatalf("unexpected pipeline error: %v", err)
	default:
	}

	headerCount := 0
	eosCount := 0
	tagCount := 0
	inputTagCount := 0
	for _, d := range stream {
		if d.IsTag() {
			inputTagCount++
		}
	}
	for _, d := range results {
		switch {
		case d.IsHeader():
			headerCount++
		case d.IsEndOfSequence():
			eosCount++
		case d.IsTag():
			tagCount++
		}
	}

	if headerCount < 3 {
		t.Fatalf("expected at least 3 segment headers (180s/60s), got %d", headerCount)
	}
	if eosCount != headerCount-1 {
		t.Fatalf("expected eosCount == headerCount-1, got eos=%d headers=%d", eosCount, headerCount)
	}
	if tagCount != inputTagCount {
		t.Fatalf("expected total tag count to equal input tag count: got %d want %d", tagCount, inputTagCount)
	}
}
