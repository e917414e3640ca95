package flv

import (
	"github.com/srec-dev/srec-go/internal/container/flv"
)

// Defragment discards any tags preceding the first valid header, then
// waits for audio/video sequence-init tags and the first keyframe before
// releasing anything downstream, so a split mid-stream never opens a
// segment that is missing its decoder configuration.
type Defragment struct {
	seenHeader    bool
	sawVideoInit  bool
	sawAudioInit  bool
	sawKeyframe   bool
	hasAudioTrack bool
	pending       []flv.Data
	released      bool
}

// NewDefragment constructs a Defragment operator in its initial state.
func NewDefragment() *Defragment { return &Defragment{} }

func (d *Defragment) Process(in flv.Data) ([]flv.Data, error) {
	if d.released {
		return []flv.Data{in}, nil
	}

	if !d.seenHeader {
		if !in.IsHeader() {
			return nil, nil // orphan tag before any header: discard
		}
		d.seenHeader = true
		d.hasAudioTrack = in.FileHeader.HasAudio
		d.pending = append(d.pending, in)
		return nil, nil
	}

	if !in.IsTag() {
		d.pending = append(d.pending, in)
		return d.tryRelease(), nil
	}

	switch in.Tag.Header.TagType {
	case flv.TagTypeVideo:
		if isSequenceInitTag(in) {
			d.sawVideoInit = true
		}
		if in.IsKeyframe() {
			d.sawKeyframe = true
		}
	case flv.TagTypeAudio:
		if isSequenceInitTag(in) {
			d.sawAudioInit = true
		}
	}

	d.pending = append(d.pending, in)
	return d.tryRelease(), nil
}

func (d *Defragment) tryRelease() []flv.Data {
	if d.released {
		out := d.pending
		d.pending = nil
		return out
	}
	ready := d.sawVideoInit && d.sawKeyframe && (!d.hasAudioTrack || d.sawAudioInit)
	if !ready {
		return nil
	}
	d.released = true
	out := d.pending
	d.pending = nil
	return out
}

// Flush releases any still-pending units unconditionally: the stream ended
// before a complete GOP was ever observed, so there is nothing further to
// wait for.
func (d *Defragment) Flush() ([]flv.Data, error) {
	out := d.pending
	d.pending = nil
	return out, nil
}

// isSequenceInitTag reports whether tag is an AVC/HEVC/AAC sequence-header
// payload: AVCVideoPacketType/AACPacketType == 0 in the legacy FLV
// extra-data byte layout.
func isSequenceInitTag(d flv.Data) bool {
	if !d.IsTag() || len(d.Tag.Data) < 2 {
		return false
	}
	switch d.Tag.Header.TagType {
	case flv.TagTypeVideo:
		codecID := d.Tag.Data[0] & 0x0F
		if codecID != 7 && codecID != 12 { // AVC=7, HEVC=12 (enhanced-RTMP extension)
			return false
		}
		return d.Tag.Data[1] == 0
	case flv.TagTypeAudio:
		soundFormat := (d.Tag.Data[0] >> 4) & 0x0F
		if soundFormat != 10 { // AAC
			return false
		}
		return d.Tag.Data[1] == 0
	default:
		return false
	}
}
