// Package config provides configuration management for the recorder using
// Viper. It supports configuration from file, environment variables, and
// defaults, with optional hot reload on file change.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	defaultHTTPTimeout       = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBaseDelay    = 1 * time.Second
	defaultFetchConcurrency  = 6
	defaultSegmentTimeoutMin = 10 * time.Second
	defaultGapSkipCount      = 5
	defaultGapSkipDuration   = 30 * time.Second
	defaultProgressBytes     = 1 << 20 // 1 MiB
	defaultProgressInterval  = 2 * time.Second
	defaultMetricsPort       = 9469
	defaultHTTPAPIPort       = 8089
)

// Config holds all configuration for the daemon and CLI.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Writer    WriterConfig    `mapstructure:"writer"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	HTTPAPI   HTTPAPIConfig   `mapstructure:"http_api"`
}

// StorageConfig controls where segment files and manifests land.
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	TempDir   string `mapstructure:"temp_dir"`
	BaseName  string `mapstructure:"base_name"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// FetchConfig controls HLS playlist/segment fetching and HTTP transport.
type FetchConfig struct {
	HTTPTimeout       Duration `mapstructure:"http_timeout"`
	RetryAttempts     int      `mapstructure:"retry_attempts"`
	RetryBaseDelay    Duration `mapstructure:"retry_base_delay"`
	Concurrency       int      `mapstructure:"concurrency"`
	SegmentTimeoutMin Duration `mapstructure:"segment_timeout_min"`
	GapSkipCount      uint64   `mapstructure:"gap_skip_count"`
	GapSkipDuration   Duration `mapstructure:"gap_skip_duration"`
	GapSkipStrategy   string   `mapstructure:"gap_skip_strategy"` // count, duration, both
	UserAgent         string   `mapstructure:"user_agent"`
	AcceptEncoding    []string `mapstructure:"accept_encoding"` // not read by the HLS fetcher, which always sends "gzip, br"
}

// WriterConfig controls segment rollover and output naming.
type WriterConfig struct {
	MaxDuration      Duration `mapstructure:"max_duration"`
	MaxSize          ByteSize `mapstructure:"max_size"`
	ProgressBytes    ByteSize `mapstructure:"progress_bytes"`
	ProgressInterval Duration `mapstructure:"progress_interval"`
	MinFreeDisk      ByteSize `mapstructure:"min_free_disk"`
}

// PipelineConfig controls operator-chain behavior.
type PipelineConfig struct {
	TimingRepairStrategy string   `mapstructure:"timing_repair_strategy"` // strict, relaxed
	RunMaxDuration       Duration `mapstructure:"run_max_duration"`
	RunMaxSize           ByteSize `mapstructure:"run_max_size"`
	EnableTwitchAdTag    bool     `mapstructure:"enable_twitch_ad_tag"`
}

// SchedulerConfig controls the periodic "check live & start recording" poll.
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	PollCron           string `mapstructure:"poll_cron"`
	CatchupMissedPolls bool   `mapstructure:"catchup_missed_polls"`
}

// MetricsConfig controls the Prometheus metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// HTTPAPIConfig controls the ops-only HTTP surface (health, metrics passthrough, run status).
type HTTPAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from file, environment, and defaults.
// Environment variables are prefixed SREC_ and use underscores for nesting,
// e.g. SREC_FETCH_CONCURRENCY=10.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/srec")
		v.AddConfigPath("$HOME/.srec")
	}

	v.SetEnvPrefix("SREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// WatchAndReload re-reads and re-validates configuration on file change,
// invoking onChange with the new config. Reload errors are passed to
// onError rather than panicking the watcher.
func WatchAndReload(configPath string, onChange func(*Config), onError func(error)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching config file: %w", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(configPath)
				if err != nil {
					onError(fmt.Errorf("reloading config: %w", err))
					continue
				}
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	return watcher, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.output_dir", "./output")
	v.SetDefault("storage.temp_dir", "./tmp")
	v.SetDefault("storage.base_name", "stream")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("fetch.http_timeout", defaultHTTPTimeout)
	v.SetDefault("fetch.retry_attempts", defaultRetryAttempts)
	v.SetDefault("fetch.retry_base_delay", defaultRetryBaseDelay)
	v.SetDefault("fetch.concurrency", defaultFetchConcurrency)
	v.SetDefault("fetch.segment_timeout_min", defaultSegmentTimeoutMin)
	v.SetDefault("fetch.gap_skip_count", defaultGapSkipCount)
	v.SetDefault("fetch.gap_skip_duration", defaultGapSkipDuration)
	v.SetDefault("fetch.gap_skip_strategy", "both")
	v.SetDefault("fetch.user_agent", "srec-go/1.0")
	v.SetDefault("fetch.accept_encoding", []string{"gzip", "br"})

	v.SetDefault("writer.progress_bytes", int64(defaultProgressBytes))
	v.SetDefault("writer.progress_interval", defaultProgressInterval)
	v.SetDefault("writer.min_free_disk", int64(0))

	v.SetDefault("pipeline.timing_repair_strategy", "relaxed")
	v.SetDefault("pipeline.enable_twitch_ad_tag", true)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.poll_cron", "*/30 * * * * *")
	v.SetDefault("scheduler.catchup_missed_polls", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", fmt.Sprintf(":%d", defaultMetricsPort))

	v.SetDefault("http_api.enabled", true)
	v.SetDefault("http_api.addr", fmt.Sprintf(":%d", defaultHTTPAPIPort))
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.Storage.BaseName == "" {
		return fmt.Errorf("storage.base_name is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	if c.Fetch.RetryAttempts < 0 {
		return fmt.Errorf("fetch.retry_attempts must not be negative")
	}
	validGapSkip := map[string]bool{"count": true, "duration": true, "both": true}
	if !validGapSkip[c.Fetch.GapSkipStrategy] {
		return fmt.Errorf("fetch.gap_skip_strategy must be one of: count, duration, both")
	}

	validTiming := map[string]bool{"strict": true, "relaxed": true}
	if !validTiming[c.Pipeline.TimingRepairStrategy] {
		return fmt.Errorf("pipeline.timing_repair_strategy must be one of: strict, relaxed")
	}

	return nil
}
