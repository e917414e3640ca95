// Package recorder assembles a single in-process recording run from
// daemon configuration: it decides which engine (FLV or HLS) the source
// URL needs, wires the mesio pipeline accordingly, and bridges its
// lifecycle into the run registry and Prometheus metrics.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/srec-dev/srec-go/internal/config"
	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/hlsfetch"
	"github.com/srec-dev/srec-go/internal/engine/mesio"
	"github.com/srec-dev/srec-go/internal/hls/reorder"
	flvpipeline "github.com/srec-dev/srec-go/internal/pipeline/flv"
	hlspipeline "github.com/srec-dev/srec-go/internal/pipeline/hls"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
	"github.com/srec-dev/srec-go/internal/observability/metrics"
	"github.com/srec-dev/srec-go/internal/runregistry"
	"github.com/srec-dev/srec-go/internal/writer"
)

// Job describes one recording target.
type Job struct {
	ID        string
	SourceURL string
	BaseName  string
}

// Run drives one recording job to completion, updating registry and
// metrics throughout, and returns the final error (nil on success or
// clean cancellation).
func Run(ctx context.Context, job Job, cfg *config.Config, registry *runregistry.Registry, logger *slog.Logger) error {
	engineName := engineNameFor(job.SourceURL)
	registry.Start(job.ID, job.SourceURL, engineName)
	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	registry.Update(job.ID, func(r *runregistry.Run) { r.Status = runregistry.StatusRunning })

	writerCfg := writer.Config{
		OutputDir:   cfg.Storage.OutputDir,
		BaseName:    job.BaseName,
		Extension:   extensionFor(job.SourceURL),
		MinFreeDisk: cfg.Writer.MinFreeDisk.Bytes(),
	}

	var handle engine.Handle
	switch engineName {
	case "mesio-hls":
		handle = mesio.RunHLS(ctx, mesio.HLSConfig{
			Config: engine.Config{
				SourceURL: job.SourceURL,
				OutputDir: cfg.Storage.OutputDir,
				BaseName:  job.BaseName,
			},
			Fetcher: hlsfetch.FetcherConfig{
				Concurrency:    cfg.Fetch.Concurrency,
				MaxRetries:     cfg.Fetch.RetryAttempts,
				RetryBaseDelay: cfg.Fetch.RetryBaseDelay.Duration(),
				HTTPTimeout:    cfg.Fetch.HTTPTimeout.Duration(),
				UserAgent:      cfg.Fetch.UserAgent,
			},
			Chain: hlspipeline.ChainConfig{
				MaxSegmentDuration: cfg.Writer.MaxDuration.Duration().Milliseconds(),
				MaxSegmentSize:     cfg.Writer.MaxSize.Bytes(),
				RunMaxDuration:     cfg.Pipeline.RunMaxDuration.Duration().Milliseconds(),
				RunMaxSize:         cfg.Pipeline.RunMaxSize.Bytes(),
			},
			Writer: writerCfg,
			GapSkip: reorder.Config{
				Strategy:       gapSkipStrategy(cfg.Fetch.GapSkipStrategy),
				CountThreshold: cfg.Fetch.GapSkipCount,
				DurationLimit:  cfg.Fetch.GapSkipDuration.Duration(),
				SegmentTimeout: cfg.Fetch.SegmentTimeoutMin.Duration(),
			},
			RefreshTimeout: 0,
			Logger:         logger,
		})
	case "mesio-flv":
		resp, err := http.Get(job.SourceURL) //nolint:noctx // request is bound by the run's own lifetime, not an ambient context
		if err != nil {
			registry.Update(job.ID, func(r *runregistry.Run) {
				r.Status = runregistry.StatusFailed
				r.Error = err.Error()
			})
			metrics.RecordRunError("source_unreachable")
			return fmt.Errorf("connecting to FLV source: %w", err)
		}
		defer resp.Body.Close()

		handle = mesio.RunFLV(ctx, resp.Body, mesio.FLVConfig{
			Config: engine.Config{
				SourceURL: job.SourceURL,
				OutputDir: cfg.Storage.OutputDir,
				BaseName:  job.BaseName,
			},
			Chain: flvpipeline.ChainConfig{
				TimingRepairStrategy: timingRepairStrategy(cfg.Pipeline.TimingRepairStrategy),
				MaxSegmentDuration:   cfg.Writer.MaxDuration.Duration().Milliseconds(),
				MaxSegmentSize:       cfg.Writer.MaxSize.Bytes(),
				RunMaxDuration:       cfg.Pipeline.RunMaxDuration.Duration().Milliseconds(),
				RunMaxSize:           cfg.Pipeline.RunMaxSize.Bytes(),
				Logger:               logger,
			},
			Writer: writerCfg,
			Logger: logger,
		})
	default:
		err := fmt.Errorf("unrecognized source URL %q: expected .m3u8 (HLS) or .flv", job.SourceURL)
		registry.Update(job.ID, func(r *runregistry.Run) {
			r.Status = runregistry.StatusFailed
			r.Error = err.Error()
		})
		return err
	}

	go drainEvents(job.ID, handle, registry)

	err := handle.Wait()
	if err != nil {
		registry.Update(job.ID, func(r *runregistry.Run) {
			r.Status = runregistry.StatusFailed
			r.Error = err.Error()
		})
		kind := "unknown"
		var pe *shared.PipelineError
		if errors.As(err, &pe) {
			kind = pe.Kind.String()
		}
		metrics.RecordRunError(kind)
		return err
	}

	registry.Update(job.ID, func(r *runregistry.Run) { r.Status = runregistry.StatusComplete })
	return nil
}

func drainEvents(jobID string, handle engine.Handle, registry *runregistry.Registry) {
	for ev := range handle.Events() {
		switch ev.Kind {
		case engine.EventCompleted:
			registry.Update(jobID, func(r *runregistry.Run) {
				r.Segments++
				r.BytesTotal += ev.Bytes
			})
			metrics.RecordSegmentClosed("", ev.Bytes, float64(ev.DurationMs)/1000.0)
		case engine.EventFailed:
			registry.Update(jobID, func(r *runregistry.Run) { r.Error = ev.Message })
		}
	}
}

func engineNameFor(sourceURL string) string {
	switch {
	case strings.Contains(sourceURL, ".m3u8"):
		return "mesio-hls"
	case strings.Contains(sourceURL, ".flv"):
		return "mesio-flv"
	default:
		return "unknown"
	}
}

func extensionFor(sourceURL string) string {
	if strings.Contains(sourceURL, ".m3u8") {
		return "ts"
	}
	return "flv"
}

func gapSkipStrategy(s string) reorder.GapSkipStrategy {
	switch s {
	case "count":
		return reorder.CountThreshold
	case "duration":
		return reorder.DurationThreshold
	default:
		return reorder.BothThresholds
	}
}

func timingRepairStrategy(s string) flvpipeline.TimingRepairStrategy {
	if s == "strict" {
		return flvpipeline.TimingRepairStrict
	}
	return flvpipeline.TimingRepairRelaxed
}
