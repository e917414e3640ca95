package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srec-dev/srec-go/internal/config"
	"github.com/srec-dev/srec-go/internal/observability"
	"github.com/srec-dev/srec-go/internal/recorder"
	"github.com/srec-dev/srec-go/internal/runregistry"
)

var recordCmd = &cobra.Command{
	Use:   "record <source-url>",
	Short: "Record a single stream once, without the scheduler or ops HTTP surface",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal, stopping recording")
		cancel()
	}()

	job := recorder.Job{ID: cfg.Storage.BaseName, SourceURL: args[0], BaseName: cfg.Storage.BaseName}
	return recorder.Run(ctx, job, cfg, runregistry.New(), logger)
}
