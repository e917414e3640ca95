// Package scheduler drives the periodic "check live & start recording"
// poll: a single cron-scheduled check per configured stream target, using
// robfig/cron as the timing engine the way the rest of the pack does.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// LiveChecker reports whether a stream target is currently live, so the
// scheduler can decide whether to start a recording run.
type LiveChecker func(ctx context.Context, target Target) (live bool, err error)

// RunStarter starts (or no-ops if already running) a recording run for a
// live target.
type RunStarter func(ctx context.Context, target Target)

// Target is one stream the scheduler polls.
type Target struct {
	Name      string
	SourceURL string
}

// Config tunes the scheduler's polling cadence.
type Config struct {
	// PollCron is a 6-field (seconds-first) robfig/cron expression; the
	// documented default is "*/30 * * * * *" (every 30 seconds).
	PollCron string
	// CatchupMissedPolls runs one immediate live-check of every target on
	// Start, ahead of PollCron's first tick.
	CatchupMissedPolls bool
}

// Scheduler polls each registered target on cron's cadence, checking
// liveness and starting a run when a target transitions to live.
type Scheduler struct {
	mu sync.RWMutex

	cfg     Config
	logger  *slog.Logger
	checker LiveChecker
	starter RunStarter

	// The default robfig/cron parser is seconds-less; PollCron's default
	// value is a 6-field expression, so the scheduler must opt into
	// cron.WithSeconds() explicitly.
	cronScheduler *cron.Cron

	targets     map[string]Target
	lastChecked map[string]time.Time
	entryID     cron.EntryID
	hasEntry    bool
}

// New constructs a Scheduler. checker and starter are required.
func New(cfg Config, checker LiveChecker, starter RunStarter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:           cfg,
		logger:        logger,
		checker:       checker,
		starter:       starter,
		cronScheduler: cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		targets:       make(map[string]Target),
		lastChecked:   make(map[string]time.Time),
	}
}

// AddTarget registers a stream target to poll.
func (s *Scheduler) AddTarget(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[t.Name] = t
}

// RemoveTarget deregisters a stream target.
func (s *Scheduler) RemoveTarget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, name)
	delete(s.lastChecked, name)
}

// Start parses cfg.PollCron and begins polling. If CatchupMissedPolls is
// set, it also runs one immediate check across every target before the
// cron schedule's first natural tick.
func (s *Scheduler) Start(ctx context.Context) error {
	entryID, err := s.cronScheduler.AddFunc(s.cfg.PollCron, func() { s.pollAll(ctx) })
	if err != nil {
		return fmt.Errorf("parsing poll_cron %q: %w", s.cfg.PollCron, err)
	}
	s.entryID = entryID
	s.hasEntry = true

	s.cronScheduler.Start()
	s.logger.Info("scheduler started", "poll_cron", s.cfg.PollCron)

	if s.cfg.CatchupMissedPolls {
		go s.pollAll(ctx)
	}
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight poll to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cronScheduler.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) pollAll(ctx context.Context) {
	s.mu.RLock()
	targets := make([]Target, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t)
	}
	s.mu.RUnlock()

	for _, t := range targets {
		s.pollOne(ctx, t)
	}
}

func (s *Scheduler) pollOne(ctx context.Context, t Target) {
	live, err := s.checker(ctx, t)
	s.mu.Lock()
	s.lastChecked[t.Name] = time.Now()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("live check failed", "target", t.Name, "error", err)
		return
	}
	if !live {
		return
	}
	s.starter(ctx, t)
}

// NextRun reports the scheduler's next scheduled poll time.
func (s *Scheduler) NextRun() (time.Time, bool) {
	if !s.hasEntry {
		return time.Time{}, false
	}
	entry := s.cronScheduler.Entry(s.entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Next, true
}
