package flv

import "github.com/srec-dev/srec-go/internal/container/flv"

// GopSort buffers tags within a keyframe-delimited group of pictures and
// reorders them so the group begins with its video keyframe, followed by
// its inter-frames and audio tags in arrival order. Header and
// end-of-sequence units flush any buffered GOP immediately.
type GopSort struct {
	keyframe []flv.Data // exactly one element once seen
	rest     []flv.Data
}

// NewGopSort constructs a GopSort operator.
func NewGopSort() *GopSort { return &GopSort{} }

func (g *GopSort) Process(in flv.Data) ([]flv.Data, error) {
	if !in.IsTag() {
		return g.flushGop(in), nil
	}

	if in.IsKeyframe() {
		out := g.drain()
		g.keyframe = []flv.Data{in}
		return out, nil
	}

	g.rest = append(g.rest, in)
	return nil, nil
}

// flushGop drains the current GOP then appends a non-tag unit (header or
// end-of-sequence), which always passes straight through.
func (g *GopSort) flushGop(passthrough flv.Data) []flv.Data {
	out := g.drain()
	return append(out, passthrough)
}

func (g *GopSort) drain() []flv.Data {
	if len(g.keyframe) == 0 && len(g.rest) == 0 {
		return nil
	}
	out := make([]flv.Data, 0, len(g.keyframe)+len(g.rest))
	out = append(out, g.keyframe...)
	out = append(out, g.rest...)
	g.keyframe = nil
	g.rest = nil
	return out
}

// Flush releases any buffered GOP at stream end.
func (g *GopSort) Flush() ([]flv.Data, error) {
	return g.drain(), nil
}
