package flv

import (
	"github.com/srec-dev/srec-go/internal/container/flv"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
)

// Limit enforces an absolute run cap on total bytes or duration seen since
// the run began. Once the cap is reached it emits the current unit, an
// EndOfSequence terminator, and then fails with a cancellation so the chain
// and every upstream stage observing the shared context wind down.
type Limit struct {
	maxDurationMs int64
	maxSizeBytes  int64

	runStart  uint32
	haveStart bool
	runBytes  int64
	tripped   bool
}

// NewLimit constructs a Limit operator (0 disables a threshold).
func NewLimit(maxDurationMs, maxSizeBytes int64) *Limit {
	return &Limit{maxDurationMs: maxDurationMs, maxSizeBytes: maxSizeBytes}
}

func (l *Limit) Process(in flv.Data) ([]flv.Data, error) {
	if l.tripped {
		return nil, shared.NewCancelledError()
	}
	if !in.IsTag() {
		return []flv.Data{in}, nil
	}

	if !l.haveStart {
		l.runStart = in.Tag.Header.TimestampMs
		l.haveStart = true
	}
	l.runBytes += int64(in.Size())
	elapsed := int64(in.Tag.Header.TimestampMs) - int64(l.runStart)

	exceeded := (l.maxDurationMs > 0 && elapsed >= l.maxDurationMs) ||
		(l.maxSizeBytes > 0 && l.runBytes >= l.maxSizeBytes)
	if !exceeded {
		return []flv.Data{in}, nil
	}

	l.tripped = true
	return []flv.Data{in, flv.NewEndOfSequenceData(nil)}, nil
}

func (l *Limit) Flush() ([]flv.Data, error) { return nil, nil }
