package hls

import "github.com/srec-dev/srec-go/internal/pipeline/shared"

// Limit enforces an absolute run cap on total bytes or accumulated segment
// duration seen since the run began. Once the cap is reached it emits the
// current unit followed by a terminator, then fails with a cancellation so
// the chain and every upstream stage observing the shared context wind down.
type Limit struct {
	maxDurationMs int64
	maxSizeBytes  int64

	runDurationMs int64
	runBytes      int64
	tripped       bool
}

// NewLimit constructs a Limit operator (0 disables a threshold).
func NewLimit(maxDurationMs, maxSizeBytes int64) *Limit {
	return &Limit{maxDurationMs: maxDurationMs, maxSizeBytes: maxSizeBytes}
}

func (l *Limit) Process(in SegmentUnit) ([]SegmentUnit, error) {
	if l.tripped {
		return nil, shared.NewCancelledError()
	}
	if in.Terminator {
		return []SegmentUnit{in}, nil
	}

	l.runDurationMs += in.DurationMs
	l.runBytes += int64(len(in.Data))

	exceeded := (l.maxDurationMs > 0 && l.runDurationMs >= l.maxDurationMs) ||
		(l.maxSizeBytes > 0 && l.runBytes >= l.maxSizeBytes)
	if !exceeded {
		return []SegmentUnit{in}, nil
	}

	l.tripped = true
	return []SegmentUnit{in, {Terminator: true}}, nil
}

func (l *Limit) Flush() ([]SegmentUnit, error) { return nil, nil }
