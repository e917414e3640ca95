// Command mesioctl drives the in-process mesio engine directly against a
// single stream URL and prints the resulting manifest as JSON — a
// does-it-work harness for the core pipeline, independent of the srecd
// daemon's scheduler and config loading.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/hlsfetch"
	"github.com/srec-dev/srec-go/internal/engine/mesio"
	"github.com/srec-dev/srec-go/internal/hls/reorder"
	flvpipeline "github.com/srec-dev/srec-go/internal/pipeline/flv"
	hlspipeline "github.com/srec-dev/srec-go/internal/pipeline/hls"
	"github.com/srec-dev/srec-go/internal/writer"
	"github.com/srec-dev/srec-go/internal/writer/manifest"
)

func main() {
	sourceURL := flag.String("source", "", "HLS (.m3u8) or FLV (.flv) stream URL to record")
	outputDir := flag.String("output-dir", "./mesioctl-output", "directory for segment files")
	baseName := flag.String("base-name", "mesioctl", "segment file base name")
	flag.Parse()

	if *sourceURL == "" {
		fmt.Fprintln(os.Stderr, "mesioctl: -source is required")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	m, err := record(ctx, *sourceURL, *outputDir, *baseName, logger)
	if err != nil {
		m.Error = err.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(m); encErr != nil {
		fmt.Fprintf(os.Stderr, "mesioctl: encoding manifest: %v\n", encErr)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}

func record(ctx context.Context, sourceURL, outputDir, baseName string, logger *slog.Logger) (manifest.Manifest, error) {
	startedAt := time.Now()
	m := manifest.Manifest{SourceURL: sourceURL, StartedAt: startedAt}

	writerCfg := writer.Config{OutputDir: outputDir, BaseName: baseName}

	var handle engine.Handle
	switch {
	case strings.Contains(sourceURL, ".m3u8"):
		m.Engine = "mesio-hls"
		writerCfg.Extension = "ts"
		handle = mesio.RunHLS(ctx, mesio.HLSConfig{
			Config: engine.Config{SourceURL: sourceURL, OutputDir: outputDir, BaseName: baseName},
			Fetcher: hlsfetch.FetcherConfig{
				Concurrency: 6,
				MaxRetries:  3,
			},
			Chain: hlspipeline.ChainConfig{
				MaxSegmentDuration: 60_000,
			},
			Writer: writerCfg,
			GapSkip: reorder.Config{
				Strategy:       reorder.BothThresholds,
				CountThreshold: 5,
				DurationLimit:  30 * time.Second,
			},
			Logger: logger,
		})
	case strings.Contains(sourceURL, ".flv"):
		m.Engine = "mesio-flv"
		writerCfg.Extension = "flv"
		resp, err := http.Get(sourceURL) //nolint:noctx // one-shot CLI, lifetime is the process itself
		if err != nil {
			return m, fmt.Errorf("connecting to FLV source: %w", err)
		}
		defer resp.Body.Close()
		handle = mesio.RunFLV(ctx, resp.Body, mesio.FLVConfig{
			Config: engine.Config{SourceURL: sourceURL, OutputDir: outputDir, BaseName: baseName},
			Chain: flvpipeline.ChainConfig{
				TimingRepairStrategy: flvpipeline.TimingRepairRelaxed,
				MaxSegmentDuration:   60_000,
				Logger:               logger,
			},
			Writer: writerCfg,
			Logger: logger,
		})
	default:
		return m, fmt.Errorf("unrecognized source URL %q: expected .m3u8 or .flv", sourceURL)
	}

	sequence := 0
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range handle.Events() {
			switch ev.Kind {
			case engine.EventCompleted:
				m.Segments = append(m.Segments, manifest.SegmentRecord{
					Sequence:   sequence,
					Path:       ev.Path,
					Bytes:      ev.Bytes,
					DurationMs: ev.DurationMs,
					ClosedAt:   time.Now(),
				})
				sequence++
				m.Events = append(m.Events, manifest.EventRecord{At: time.Now(), Kind: "segment_closed"})
			case engine.EventFailed:
				m.Events = append(m.Events, manifest.EventRecord{At: time.Now(), Kind: "failed", Message: ev.Message})
			case engine.EventPlaylistRefreshed:
				m.Events = append(m.Events, manifest.EventRecord{At: time.Now(), Kind: "playlist_refreshed"})
			case engine.EventDiscontinuityTagEncountered:
				m.Events = append(m.Events, manifest.EventRecord{At: time.Now(), Kind: "discontinuity_tag_encountered"})
			case engine.EventSegmentTimeout:
				m.Events = append(m.Events, manifest.EventRecord{
					At:      time.Now(),
					Kind:    "segment_timeout",
					Message: fmt.Sprintf("sequence %d waited %dms", ev.TimeoutSequence, ev.WaitedMs),
				})
			case engine.EventGapSkipped:
				m.Events = append(m.Events, manifest.EventRecord{
					At:      time.Now(),
					Kind:    "gap_skipped",
					Message: fmt.Sprintf("sequence %d to %d (%s)", ev.GapFromSequence, ev.GapToSequence, ev.GapReason),
				})
			case engine.EventStreamEnded:
				m.Events = append(m.Events, manifest.EventRecord{At: time.Now(), Kind: "stream_ended"})
			}
		}
	}()

	err := handle.Wait()
	<-drained
	m.EndedAt = time.Now()
	return m, err
}
