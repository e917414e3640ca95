// Package streamlink implements engine.Engine over an external streamlink
// process piped directly to the writer's segment files via streamlink's
// own --output templating; process construction detail beyond that is a
// collaborator concern outside this pipeline's core.
package streamlink

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/extproc"
)

// Engine spawns streamlink to record cfg.SourceURL.
type Engine struct {
	BinaryPath string // defaults to "streamlink" on PATH
	Quality    string // defaults to "best"
}

func (e Engine) Start(ctx context.Context, cfg engine.Config) (engine.Handle, error) {
	ctx, cancel := extproc.RunTimeoutContext(ctx, cfg.RunTimeout)

	bin := e.BinaryPath
	if bin == "" {
		bin = "streamlink"
	}
	quality := e.Quality
	if quality == "" {
		quality = "best"
	}

	outputPath := filepath.Join(cfg.OutputDir, cfg.BaseName+".ts")
	cmd := exec.CommandContext(ctx, bin,
		"--loglevel", "info",
		"-o", outputPath,
		cfg.SourceURL, quality,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening streamlink stdout: %w", err)
	}

	h, err := extproc.Start(ctx, extproc.Spec{
		Cmd:            cmd,
		ProgressReader: stdout,
		Parser:         parseLogLine,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

// parseLogLine surfaces streamlink's "Opening stream" / "Stream ended" log
// lines as lifecycle events; byte/duration accounting is left to the
// writer's own file stat, since streamlink's log format carries no
// reliable byte counter.
func parseLogLine(line string) (engine.SegmentEvent, bool) {
	switch {
	case strings.Contains(line, "Opening stream"):
		return engine.SegmentEvent{Kind: engine.EventOpened}, true
	case strings.Contains(line, "Stream ended"):
		return engine.SegmentEvent{Kind: engine.EventCompleted}, true
	default:
		return engine.SegmentEvent{}, false
	}
}
