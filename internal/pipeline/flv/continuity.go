package flv

import "github.com/srec-dev/srec-go/internal/container/flv"

// Continuity rebases timestamps across source restarts within a run: a new
// Header marks the start of a new source segment, and every subsequent
// tag's output timestamp continues from where the previous segment left
// off, per t_out(k) = t_out(k-1) + (t_in(k) - t_in_segment_start).
type Continuity struct {
	outputBase   uint32 // t_out carried from the previous segment
	segmentStart uint32 // t_in of the first tag in the current segment
	haveSegment  bool
	lastOut      uint32
}

// NewContinuity constructs a Continuity operator.
func NewContinuity() *Continuity { return &Continuity{} }

func (c *Continuity) Process(in flv.Data) ([]flv.Data, error) {
	if in.IsHeader() {
		if c.haveSegment {
			c.outputBase = c.lastOut
		}
		c.haveSegment = false
		return []flv.Data{in}, nil
	}

	if !in.IsTag() {
		return []flv.Data{in}, nil
	}

	ts := in.Tag.Header.TimestampMs
	if !c.haveSegment {
		c.segmentStart = ts
		c.haveSegment = true
	}

	rebased := c.outputBase + (ts - c.segmentStart)
	c.lastOut = rebased

	out := in
	out.Tag.Header.TimestampMs = rebased
	return []flv.Data{out}, nil
}

func (c *Continuity) Flush() ([]flv.Data, error) { return nil, nil }
