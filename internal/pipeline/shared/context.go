// Package shared holds the types common to every stage of the recording
// pipeline: the per-run streamer context, the pipeline error taxonomy, and
// the deterministic writer/pipeline settlement rule.
package shared

import "context"

// StreamerContext is passed to every operator in a chain: the stream name
// (used in logs and manifest entries) and the run's cancellation, expressed
// as a context.Context the way the rest of this module's concurrency is
// built, rather than a bespoke token type.
type StreamerContext struct {
	Name string
	Ctx  context.Context
}

// NewStreamerContext builds a context for an unnamed stream.
func NewStreamerContext(ctx context.Context) StreamerContext {
	return StreamerContext{Name: "stream", Ctx: ctx}
}

// WithName returns a copy of sc carrying a new stream name.
func (sc StreamerContext) WithName(name string) StreamerContext {
	sc.Name = name
	return sc
}

// Cancelled reports whether the run's context has been cancelled.
func (sc StreamerContext) Cancelled() bool {
	select {
	case <-sc.Ctx.Done():
		return true
	default:
		return false
	}
}
