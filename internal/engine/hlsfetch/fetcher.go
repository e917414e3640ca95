package hlsfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/semaphore"
)

// FetchedSegment is a downloaded segment's bytes paired back to its
// playlist metadata.
type FetchedSegment struct {
	Segment Segment
	Data    []byte
	Err     error
}

// FetcherConfig controls concurrency and retry behavior. Zero values take
// the documented defaults.
type FetcherConfig struct {
	Concurrency    int           // default 6
	MaxRetries     int           // default 3
	RetryBaseDelay time.Duration // default 1s, doubled per attempt
	HTTPTimeout    time.Duration // default 30s
	UserAgent      string
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 6
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return c
}

// Fetcher downloads HLS segments with bounded concurrency and per-segment
// retry with exponential backoff.
type Fetcher struct {
	cfg    FetcherConfig
	client *retryablehttp.Client
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewFetcher constructs a Fetcher. The retryablehttp client is configured
// with no retries of its own; the per-segment retry loop in fetchOne owns
// both the attempt count (cfg.MaxRetries) and the delay between attempts.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	cfg = cfg.withDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // outer loop in fetchOne owns retry counting and delay
	rc.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	rc.Logger = nil

	return &Fetcher{
		cfg:    cfg,
		client: rc,
		sem:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger: logger,
	}
}

// FetchAll downloads every segment in playlist order, respecting the
// configured concurrency limit, and streams results on the returned channel
// in COMPLETION order (not playlist order — ordering is restored downstream
// by the reorder state machine, which is the dedicated component for that
// concern).
func (f *Fetcher) FetchAll(ctx context.Context, segments []Segment) <-chan FetchedSegment {
	out := make(chan FetchedSegment, len(segments))

	go func() {
		defer close(out)
		done := make(chan struct{}, len(segments))

		for _, seg := range segments {
			seg := seg
			if err := f.sem.Acquire(ctx, 1); err != nil {
				out <- FetchedSegment{Segment: seg, Err: fmt.Errorf("acquiring fetch slot: %w", err)}
				done <- struct{}{}
				continue
			}
			go func() {
				defer f.sem.Release(1)
				defer func() { done <- struct{}{} }()
				data, err := f.fetchOne(ctx, seg.URI)
				out <- FetchedSegment{Segment: seg, Data: data, Err: err}
			}()
		}

		for range segments {
			<-done
		}
	}()

	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.RetryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := f.download(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if f.logger != nil {
			f.logger.Warn("segment download failed", "url", url, "attempt", attempt+1, "error", err)
		}
	}
	return nil, fmt.Errorf("downloading segment %s after %d attempts: %w", url, f.cfg.MaxRetries, lastErr)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	// net/http transparently decodes gzip; brotli needs an explicit
	// Accept-Encoding advertisement and manual decoding below, since some
	// CDNs serve brotli-compressed playlists and segments.
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "br" {
		body = brotli.NewReader(resp.Body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}
