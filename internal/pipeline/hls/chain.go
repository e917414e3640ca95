package hls

import "github.com/srec-dev/srec-go/internal/pipeline/shared"

// Operator is one stage of the HLS chain, mirroring the FLV chain's
// Operator contract over SegmentUnit instead of flv.Data.
type Operator interface {
	Process(u SegmentUnit) ([]SegmentUnit, error)
	Flush() ([]SegmentUnit, error)
}

// Chain runs the fixed HLS operator sequence: Split, Limit.
type Chain struct {
	operators []Operator
}

// ChainConfig configures the instantiable operators of a Chain.
type ChainConfig struct {
	MaxSegmentDuration int64 // milliseconds, 0 = unlimited (Split threshold)
	MaxSegmentSize     int64 // bytes, 0 = unlimited (Split threshold)
	RunMaxDuration     int64 // milliseconds, 0 = unlimited (Limit threshold)
	RunMaxSize         int64 // bytes, 0 = unlimited (Limit threshold)
}

// NewChain builds the fixed HLS operator chain: Split -> Limit.
func NewChain(cfg ChainConfig) *Chain {
	return &Chain{operators: []Operator{
		NewSplit(cfg.MaxSegmentDuration, cfg.MaxSegmentSize),
		NewLimit(cfg.RunMaxDuration, cfg.RunMaxSize),
	}}
}

// Run drives in through every operator in order until in closes or sc is
// cancelled, sending results to out. Run closes out before returning.
func (c *Chain) Run(sc shared.StreamerContext, in <-chan SegmentUnit, out chan<- SegmentUnit, errc chan<- *shared.PipelineError) {
	defer close(out)

	emit := func(units []SegmentUnit) bool {
		for _, u := range units {
			select {
			case out <- u:
			case <-sc.Ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-sc.Ctx.Done():
			errc <- shared.NewCancelledError()
			return
		case u, ok := <-in:
			if !ok {
				for _, op := range c.operators {
					units, err := op.Flush()
					if err != nil {
						errc <- asPipelineError(err)
						return
					}
					if !emit(units) {
						errc <- shared.NewCancelledError()
						return
					}
				}
				return
			}

			units := []SegmentUnit{u}
			for _, op := range c.operators {
				var next []SegmentUnit
				for _, item := range units {
					result, err := op.Process(item)
					if err != nil {
						errc <- asPipelineError(err)
						return
					}
					next = append(next, result...)
				}
				units = next
			}
			if !emit(units) {
				errc <- shared.NewCancelledError()
				return
			}
		}
	}
}

func asPipelineError(err error) *shared.PipelineError {
	if pe, ok := err.(*shared.PipelineError); ok {
		return pe
	}
	return shared.NewProcessingError(err)
}
