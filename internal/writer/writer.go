// Package writer implements the segment writer: it consumes a stream of
// container units from a bounded channel, opens and closes segment files
// on segment boundaries, and reports progress and completion through
// caller-supplied callbacks.
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/oklog/ulid/v2"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/srec-dev/srec-go/internal/pipeline/shared"
)

// Unit is the minimal shape the writer needs from a container data item,
// satisfied by both flv.Data and an HLS segment/init-segment payload.
type Unit interface {
	// IsSegmentOpen reports whether this unit starts a new segment (an FLV
	// synthetic Header, or an HLS new-media-segment boundary).
	IsSegmentOpen() bool
	// IsTerminator reports whether this unit ends the current run
	// (FLV EndOfSequence, or the HLS fetcher's stream-end marker).
	IsTerminator() bool
	// Bytes returns the on-wire bytes to append to the current segment
	// file. For a segment-open unit, this is the re-serialized container
	// header (FLV) or copied init segment (HLS fMP4 affinity).
	Bytes() []byte
	// TimestampMs is used to track segment duration; implementations that
	// do not carry a meaningful timestamp (HLS segments, keyed by wall
	// clock) may return 0 and rely on wall-clock duration instead.
	TimestampMs() uint32
}

// Config controls output naming and rollover semantics not already
// determined by the operator chain (which decides *when* to split).
type Config struct {
	OutputDir string
	BaseName  string
	Extension string // "flv", "ts", "m4s"
	// MinFreeDisk is the minimum free space, in bytes, required on
	// OutputDir's filesystem before a new segment file is opened. Zero
	// disables the check.
	MinFreeDisk int64
}

// ProgressEvent is rate-limited by both byte and time intervals: both must
// be met before a new event fires.
type ProgressEvent struct {
	Path  string
	Bytes int64
	Total int64
}

// Callbacks are invoked around a segment's lifecycle.
type Callbacks struct {
	OnOpen     func(path string, sequence int)
	OnClose    func(path string, sequence int, durationMs int64, bytes int64)
	OnProgress func(ProgressEvent)
}

// RateLimit configures the minimum byte and time interval between two
// consecutive progress callbacks; both thresholds must be crossed.
type RateLimit struct {
	Bytes    int64
	Interval time.Duration
}

// Stats summarizes a completed writer run.
type Stats struct {
	SegmentsWritten int
	TotalBytes      int64
}

// Writer consumes units from In and writes segment files per Config.
type Writer struct {
	cfg       Config
	callbacks Callbacks
	rateLimit RateLimit
	runDir    string
}

// New constructs a Writer. Each Writer is stamped with its own ULID-named
// run directory under cfg.OutputDir, so concurrent runs against the same
// BaseName never collide and run directories sort lexically by creation
// order.
func New(cfg Config, callbacks Callbacks, rateLimit RateLimit) *Writer {
	return &Writer{cfg: cfg, callbacks: callbacks, rateLimit: rateLimit, runDir: ulid.Make().String()}
}

// Run consumes in until it closes or sc's context is cancelled, writing
// segment files and invoking callbacks. It returns the accumulated stats
// and, on cancellation, a non-nil error wrapping shared.ErrCancelled.
func (w *Writer) Run(sc shared.StreamerContext, in <-chan Unit) (Stats, error) {
	var stats Stats
	sequence := 0

	var current *openSegment

	closeCurrent := func() error {
		if current == nil {
			return nil
		}
		seg := current
		current = nil
		if err := seg.finalize(); err != nil {
			return shared.NewIOError(fmt.Errorf("finalizing segment %s: %w", seg.finalPath, err))
		}
		if w.callbacks.OnClose != nil {
			w.callbacks.OnClose(seg.finalPath, seg.sequence, seg.durationMs(), seg.bytesWritten)
		}
		stats.SegmentsWritten++
		stats.TotalBytes += seg.bytesWritten
		return nil
	}

	openNew := func() error {
		seg, err := openSegmentFile(sc.Ctx, w.cfg, w.runDir, sequence)
		if err != nil {
			return err
		}
		current = seg
		if w.callbacks.OnOpen != nil {
			w.callbacks.OnOpen(seg.finalPath, sequence)
		}
		sequence++
		return nil
	}

	var lastProgressAt time.Time
	var lastProgressBytes int64

	maybeProgress := func() {
		if current == nil || w.callbacks.OnProgress == nil {
			return
		}
		bytesSince := current.bytesWritten - lastProgressBytes
		timeSince := time.Since(lastProgressAt)
		if bytesSince < w.rateLimit.Bytes || timeSince < w.rateLimit.Interval {
			return
		}
		lastProgressAt = time.Now()
		lastProgressBytes = current.bytesWritten
		w.callbacks.OnProgress(ProgressEvent{Path: current.finalPath, Bytes: current.bytesWritten, Total: stats.TotalBytes + current.bytesWritten})
	}

	for {
		select {
		case <-sc.Ctx.Done():
			if err := closeCurrent(); err != nil {
				return stats, err
			}
			return stats, shared.NewCancelledError()
		case u, ok := <-in:
			if !ok {
				if err := closeCurrent(); err != nil {
					return stats, err
				}
				return stats, nil
			}

			if u.IsTerminator() {
				if err := closeCurrent(); err != nil {
					return stats, err
				}
				continue
			}

			if u.IsSegmentOpen() {
				if err := closeCurrent(); err != nil {
					return stats, err
				}
				if err := openNew(); err != nil {
					return stats, shared.NewIOError(err)
				}
			}

			if current == nil {
				if err := openNew(); err != nil {
					return stats, shared.NewIOError(err)
				}
			}

			if err := current.write(u.Bytes(), u.TimestampMs()); err != nil {
				return stats, shared.NewIOError(err)
			}
			maybeProgress()
		}
	}
}

type openSegment struct {
	sequence     int
	finalPath    string
	pending      *renameio.PendingFile
	bytesWritten int64
	startedAt    time.Time
	firstTS      uint32
	lastTS       uint32
	haveTS       bool
}

func openSegmentFile(ctx context.Context, cfg Config, runDir string, sequence int) (*openSegment, error) {
	dir := filepath.Join(cfg.OutputDir, runDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	if err := checkFreeDisk(ctx, dir, cfg.MinFreeDisk); err != nil {
		return nil, err
	}

	finalPath := filepath.Join(dir, fmt.Sprintf("%s_%04d.%s", cfg.BaseName, sequence, cfg.Extension))

	pending, err := renameio.NewPendingFile(finalPath, renameio.WithTempDir(dir))
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}

	return &openSegment{
		sequence:  sequence,
		finalPath: finalPath,
		pending:   pending,
		startedAt: time.Now(),
	}, nil
}

func (s *openSegment) write(b []byte, ts uint32) error {
	if _, err := s.pending.Write(b); err != nil {
		return err
	}
	s.bytesWritten += int64(len(b))
	if !s.haveTS {
		s.firstTS = ts
		s.haveTS = true
	}
	s.lastTS = ts
	return nil
}

func (s *openSegment) durationMs() int64 {
	if s.haveTS && s.lastTS > s.firstTS {
		return int64(s.lastTS - s.firstTS)
	}
	return time.Since(s.startedAt).Milliseconds()
}

// finalize atomically renames the pending temp file into place.
func (s *openSegment) finalize() error {
	return s.pending.CloseAtomicallyReplace()
}

// checkFreeDisk guards against opening a new segment file on a nearly-full
// filesystem: a mid-segment ENOSPC leaves a partially-written, unusable
// file behind, whereas failing here leaves nothing on disk for this segment.
func checkFreeDisk(ctx context.Context, dir string, minFree int64) error {
	if minFree <= 0 {
		return nil
	}
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return fmt.Errorf("checking free disk space: %w", err)
	}
	if usage.Free < uint64(minFree) {
		return fmt.Errorf("insufficient free disk space on %s: %d bytes free, %d required", dir, usage.Free, minFree)
	}
	return nil
}
