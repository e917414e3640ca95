package flv

import "github.com/srec-dev/srec-go/internal/container/flv"

// Split rolls a new segment open on a keyframe boundary once the current
// segment's configured max duration or max size has been reached. It
// always waits for a keyframe so every emitted segment is independently
// decodable.
type Split struct {
	maxDurationMs int64 // 0 = unlimited
	maxSizeBytes  int64 // 0 = unlimited

	header       flv.Header
	haveHeader   bool
	segmentStart uint32
	haveSegment  bool
	segmentBytes int64
	pendingSplit bool
}

// NewSplit constructs a Split operator with the given thresholds (0 disables a threshold).
func NewSplit(maxDurationMs, maxSizeBytes int64) *Split {
	return &Split{maxDurationMs: maxDurationMs, maxSizeBytes: maxSizeBytes}
}

func (s *Split) Process(in flv.Data) ([]flv.Data, error) {
	if in.IsHeader() {
		s.header = in.FileHeader
		s.haveHeader = true
		s.haveSegment = false
		s.segmentBytes = 0
		s.pendingSplit = false
		return []flv.Data{in}, nil
	}

	if !in.IsTag() {
		return []flv.Data{in}, nil
	}

	if !s.haveSegment {
		s.segmentStart = in.Tag.Header.TimestampMs
		s.haveSegment = true
	}

	if s.pendingSplit && in.IsKeyframe() {
		out := []flv.Data{
			flv.NewEndOfSequenceData(nil),
			flv.NewHeaderData(s.header),
			in,
		}
		s.pendingSplit = false
		s.segmentStart = in.Tag.Header.TimestampMs
		s.segmentBytes = int64(in.Size())
		return out, nil
	}

	s.segmentBytes += int64(in.Size())
	elapsed := int64(in.Tag.Header.TimestampMs) - int64(s.segmentStart)

	exceeded := (s.maxDurationMs > 0 && elapsed >= s.maxDurationMs) ||
		(s.maxSizeBytes > 0 && s.segmentBytes >= s.maxSizeBytes)
	if exceeded {
		s.pendingSplit = true
	}

	return []flv.Data{in}, nil
}

func (s *Split) Flush() ([]flv.Data, error) { return nil, nil }
