// Package ffmpeg implements engine.Engine over an external ffmpeg process:
// codec/output flag construction, TLS, and proxy plumbing are collaborator
// concerns outside this pipeline's core and are not implemented here.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/extproc"
)

// Engine spawns ffmpeg to record cfg.SourceURL directly to segment files.
type Engine struct {
	BinaryPath string // defaults to "ffmpeg" on PATH
}

var frameProgressLine = regexp.MustCompile(`^frame=\s*(\d+)`)

func (e Engine) Start(ctx context.Context, cfg engine.Config) (engine.Handle, error) {
	ctx, cancel := extproc.RunTimeoutContext(ctx, cfg.RunTimeout)

	bin := e.BinaryPath
	if bin == "" {
		bin = "ffmpeg"
	}

	outputPattern := filepath.Join(cfg.OutputDir, cfg.BaseName+"_%04d.ts")
	cmd := exec.CommandContext(ctx, bin,
		"-i", cfg.SourceURL,
		"-c", "copy",
		"-f", "segment",
		"-stats",
		outputPattern,
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening ffmpeg stderr: %w", err)
	}

	h, err := extproc.Start(ctx, extproc.Spec{
		Cmd:            cmd,
		ProgressReader: stderr,
		Parser:         parseProgressLine,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

// parseProgressLine extracts an EventProgress from one -stats progress
// line; ffmpeg's -stats output reports a running frame counter, which is
// carried in the event's Bytes field (DurationMs stays 0). That value is a
// frame count, not a byte count: ffmpeg does not report per-segment byte
// totals on the progress stream.
func parseProgressLine(line string) (engine.SegmentEvent, bool) {
	m := frameProgressLine.FindStringSubmatch(line)
	if m == nil {
		return engine.SegmentEvent{}, false
	}
	frame, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return engine.SegmentEvent{}, false
	}
	return engine.SegmentEvent{Kind: engine.EventProgress, Bytes: frame}, true
}
