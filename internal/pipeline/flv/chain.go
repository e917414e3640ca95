// Package flv implements the FLV operator chain: defragment, codec probe,
// script filter, GOP sort, timing repair, continuity, split, and limit.
// Operators run single-threaded within one chain goroutine — stream
// ordering is a correctness requirement — while the chain itself is driven
// by bounded channels so it composes with the rest of the pipeline's
// backpressure.
package flv

import (
	"log/slog"

	"github.com/srec-dev/srec-go/internal/container/flv"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
)

// Operator is one stage of the FLV chain. Process consumes a single input
// unit and returns zero or more output units, in order. Flush is called
// once when the upstream input channel closes, to let an operator drain
// any buffered state (e.g. a GOP still being collected).
type Operator interface {
	Process(d flv.Data) ([]flv.Data, error)
	Flush() ([]flv.Data, error)
}

// Chain runs a fixed ordered sequence of operators over an input channel,
// emitting to an output channel, honoring sc's cancellation between units.
type Chain struct {
	operators []Operator
}

// NewChain builds the fixed FLV operator chain per the documented order:
// defragment, codec probe, script filter, GOP sort, timing repair,
// continuity, split, limit.
func NewChain(cfg ChainConfig) *Chain {
	return &Chain{operators: []Operator{
		NewDefragment(),
		NewCodecProbe(cfg.Logger),
		NewScriptFilter(),
		NewGopSort(),
		NewTimingRepair(cfg.TimingRepairStrategy),
		NewContinuity(),
		NewSplit(cfg.MaxSegmentDuration, cfg.MaxSegmentSize),
		NewLimit(cfg.RunMaxDuration, cfg.RunMaxSize),
	}}
}

// ChainConfig configures the instantiable operators of a Chain.
type ChainConfig struct {
	TimingRepairStrategy TimingRepairStrategy
	MaxSegmentDuration   int64 // milliseconds, 0 = unlimited
	MaxSegmentSize       int64 // bytes, 0 = unlimited
	RunMaxDuration       int64 // milliseconds, 0 = unlimited
	RunMaxSize           int64 // bytes, 0 = unlimited
	Logger               *slog.Logger
}

// Run drives in through every operator in order until in closes or sc is
// cancelled, sending results to out. Run closes out before returning.
// Any operator error is sent to errc and stops the chain.
func (c *Chain) Run(sc shared.StreamerContext, in <-chan flv.Data, out chan<- flv.Data, errc chan<- *shared.PipelineError) {
	defer close(out)

	emit := func(units []flv.Data) bool {
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
		case d, ok := <-in:
			if !ok {
				for i, op := range c.operators {
					units, err := op.Flush()
					if err != nil {
						errc <- asPipelineError(err)
						return
					}
					for _, next := range c.operators[i+1:] {
						var nextUnits []flv.Data
						for _, u := range units {
							processed, err := next.Process(u)
							if err != nil {
								errc <- asPipelineError(err)
								return
							}
							nextUnits = append(nextUnits, processed...)
						}
						units = nextUnits
					}
					if !emit(units) {
						errc <- shared.NewCancelledError()
						return
					}
				}
				return
			}

			units := []flv.Data{d}
			for _, op := range c.operators {
				var next []flv.Data
				for _, u := range units {
					out, err := op.Process(u)
					if err != nil {
						errc <- asPipelineError(err)
						return
					}
					next = append(next, out...)
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
