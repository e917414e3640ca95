// Package engine defines the uniform download engine surface the daemon
// drives regardless of which concrete engine (in-process Mesio, external
// FFmpeg, external Streamlink) is recording a given run.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FailureKind classifies why a run Failed.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureExternalTool
	FailureNetwork
	FailureInvalidData
)

// SegmentEventKind discriminates SegmentEvent variants.
type SegmentEventKind int

const (
	EventOpened SegmentEventKind = iota
	EventProgress
	EventCompleted
	EventFailed
	EventPlaylistRefreshed
	EventDiscontinuityTagEncountered
	EventSegmentTimeout
	EventGapSkipped
	EventStreamEnded
)

// SegmentEvent is one lifecycle event surfaced to the host process.
type SegmentEvent struct {
	Kind SegmentEventKind

	RunID      string
	Path       string
	Sequence   int
	Bytes      int64
	Total      int64
	DurationMs int64

	FailureKind FailureKind
	Message     string

	// PlaylistRefreshed fields.
	MediaSequenceBase uint64
	TargetDurationMs  int64

	// GapSkipped fields.
	GapFromSequence uint64
	GapToSequence   uint64
	GapReason       string

	// SegmentTimeout fields.
	TimeoutSequence uint64
	WaitedMs        int64
}

// Config is the engine-agnostic configuration for one recording run.
type Config struct {
	SourceURL  string
	OutputDir  string
	BaseName   string
	RunTimeout time.Duration // 0 = unlimited
	// RunID correlates every SegmentEvent and log line this run emits.
	// NewRunID() generates one when the caller doesn't supply its own.
	RunID string
}

// NewRunID generates a fresh per-run correlation ID.
func NewRunID() string {
	return uuid.NewString()
}

// Handle is a running download's control surface.
type Handle interface {
	// Events yields SegmentEvent until the run ends, then closes.
	Events() <-chan SegmentEvent
	// Cancel requests the run stop; idempotent.
	Cancel()
	// Wait blocks until the run has fully settled and returns its final error, if any.
	Wait() error
}

// Engine starts a recording run against Config and returns a Handle.
type Engine interface {
	Start(ctx context.Context, cfg Config) (Handle, error)
}
