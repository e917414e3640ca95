package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/srec-dev/srec-go/internal/config"
	"github.com/srec-dev/srec-go/internal/httpapi"
	"github.com/srec-dev/srec-go/internal/observability"
	"github.com/srec-dev/srec-go/internal/recorder"
	"github.com/srec-dev/srec-go/internal/runregistry"
	"github.com/srec-dev/srec-go/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recording daemon",
	Long: `Start srecd in daemon mode: poll the configured source on a cron
schedule, start an in-process recording run whenever it goes live, and
serve the ops-only HTTP surface (/healthz, /metrics, /runs/{id}).`,
	RunE: runServe,
}

var serveSourceURL string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveSourceURL, "source", "", "stream source URL to poll and record")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	registry := runregistry.New()

	sourceURL := serveSourceURL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("starting metrics listener", "addr", cfg.Metrics.Addr)
			srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.Handler()}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	var opsServer *httpapi.Server
	if cfg.HTTPAPI.Enabled {
		opsServer = httpapi.NewServer(httpapi.Config{
			Addr:            cfg.HTTPAPI.Addr,
			ReadTimeout:     httpapi.DefaultConfig().ReadTimeout,
			WriteTimeout:    httpapi.DefaultConfig().WriteTimeout,
			IdleTimeout:     httpapi.DefaultConfig().IdleTimeout,
			ShutdownTimeout: httpapi.DefaultConfig().ShutdownTimeout,
		}, registry, "dev")
		go func() {
			logger.Info("starting ops HTTP server", "addr", cfg.HTTPAPI.Addr)
			if err := opsServer.Start(); err != nil {
				logger.Error("ops HTTP server stopped", "error", err)
			}
		}()
	}

	if sourceURL != "" && cfg.Scheduler.Enabled {
		sched := scheduler.New(
			scheduler.Config{
				PollCron:           cfg.Scheduler.PollCron,
				CatchupMissedPolls: cfg.Scheduler.CatchupMissedPolls,
			},
			func(checkCtx context.Context, target scheduler.Target) (bool, error) {
				return checkLive(checkCtx, target.SourceURL)
			},
			func(runCtx context.Context, target scheduler.Target) {
				startRecording(runCtx, target, cfg, registry, logger)
			},
			logger,
		)
		sched.AddTarget(scheduler.Target{Name: cfg.Storage.BaseName, SourceURL: sourceURL})
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	} else if sourceURL != "" {
		go func() {
			job := recorder.Job{ID: cfg.Storage.BaseName, SourceURL: sourceURL, BaseName: cfg.Storage.BaseName}
			if err := recorder.Run(ctx, job, cfg, registry, logger); err != nil {
				logger.Error("recording run ended with error", "error", err)
			}
		}()
	}

	<-ctx.Done()

	if opsServer != nil {
		_ = opsServer.Shutdown()
	}
	logger.Info("srecd stopped")
	return nil
}

// checkLive issues a lightweight HEAD probe against the source URL;
// a reachable stream is treated as live since HLS/FLV sources expose no
// separate liveness signal at this layer.
func checkLive(ctx context.Context, sourceURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, sourceURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400, nil
}

// activeJobs tracks which targets currently have a recording run in
// flight, so a live poll tick doesn't start a second overlapping run.
var (
	activeJobsMu sync.Mutex
	activeJobs   = make(map[string]bool)
)

func startRecording(ctx context.Context, target scheduler.Target, cfg *config.Config, registry *runregistry.Registry, logger *slog.Logger) {
	activeJobsMu.Lock()
	if activeJobs[target.Name] {
		activeJobsMu.Unlock()
		return
	}
	activeJobs[target.Name] = true
	activeJobsMu.Unlock()

	go func() {
		defer func() {
			activeJobsMu.Lock()
			delete(activeJobs, target.Name)
			activeJobsMu.Unlock()
		}()
		job := recorder.Job{ID: target.Name, SourceURL: target.SourceURL, BaseName: target.Name}
		if err := recorder.Run(ctx, job, cfg, registry, logger); err != nil {
			logger.Error("recording run ended with error", "target", target.Name, "error", err)
		}
	}()
}
