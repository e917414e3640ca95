package flv

import "github.com/srec-dev/srec-go/internal/container/flv"

// TimingRepairStrategy selects how TimingRepair reacts to a timestamp
// regression, duplicate, or large jump.
type TimingRepairStrategy int

const (
	// TimingRepairStrict rewrites timestamps onto a continuous,
	// monotonically increasing base whenever an anomaly is detected.
	TimingRepairStrict TimingRepairStrategy = iota
	// TimingRepairRelaxed leaves timestamps untouched and instead lets the
	// anomaly pass through; only a Continuity-visible restart is rebased.
	TimingRepairRelaxed
)

// largeJumpThresholdMs flags a jump this large (or more) as anomalous,
// distinguishing a genuine discontinuity from ordinary frame jitter.
const largeJumpThresholdMs = 5000

// TimingRepair detects timestamp regressions, duplicates, and large jumps
// in the tag stream and, under TimingRepairStrict, rewrites timestamps onto
// a continuous monotonically increasing base.
type TimingRepair struct {
	strategy TimingRepairStrategy
	lastIn   uint32
	lastOut  uint32
	haveLast bool
}

// NewTimingRepair constructs a TimingRepair operator using strategy.
func NewTimingRepair(strategy TimingRepairStrategy) *TimingRepair {
	return &TimingRepair{strategy: strategy}
}

func (t *TimingRepair) Process(in flv.Data) ([]flv.Data, error) {
	if !in.IsTag() {
		return []flv.Data{in}, nil
	}

	ts := in.Tag.Header.TimestampMs
	anomalous := t.haveLast && (ts <= t.lastIn || ts-t.lastIn > largeJumpThresholdMs)

	if t.strategy == TimingRepairRelaxed {
		t.lastIn = ts
		t.lastOut = ts
		t.haveLast = true
		return []flv.Data{in}, nil
	}

	// Strict: an anomalous tag is rebased onto a single-millisecond step past
	// the last emitted timestamp; later tags keep the same shift
	// (lastOut - lastIn) so downstream ordering stays monotonic.
	repaired := uint32(int64(ts) + int64(t.lastOut) - int64(t.lastIn))
	if anomalous {
		repaired = t.lastOut + 1
	}
	t.lastIn = ts
	t.lastOut = repaired
	t.haveLast = true

	out := in
	out.Tag.Header.TimestampMs = repaired
	return []flv.Data{out}, nil
}

func (t *TimingRepair) Flush() ([]flv.Data, error) { return nil, nil }
