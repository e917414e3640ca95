package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSchedulerStartsRunWhenLive(t *testing.T) {
	var mu sync.Mutex
	started := make(map[string]int)

	checker := func(ctx context.Context, target Target) (bool, error) {
		return target.Name == "live-channel", nil
	}
	starter := func(ctx context.Context, target Target) {
		mu.Lock()
		started[target.Name]++
		mu.Unlock()
	}

	s := New(Config{PollCron: "*/1 * * * * *", CatchupMissedPolls: true}, checker, starter, nil)
	s.AddTarget(Target{Name: "live-channel", SourceURL: "https://example.invalid/live.m3u8"})
	s.AddTarget(Target{Name: "offline-channel", SourceURL: "https://example.invalid/offline.m3u8"})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := started["live-channel"]
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected starter to be invoked for live target via catch-up poll")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if started["offline-channel"] != 0 {
		t.Fatalf("starter should not be invoked for an offline target, got %d calls", started["offline-channel"])
	}
}

func TestSchedulerRejectsInvalidCron(t *testing.T) {
	s := New(Config{PollCron: "not-a-cron"}, func(context.Context, Target) (bool, error) {
		return false, nil
	}, func(context.Context, Target) {}, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected Start to reject an invalid cron expression")
	}
}

func TestAddAndRemoveTarget(t *testing.T) {
	s := New(Config{PollCron: "*/30 * * * * *"}, func(context.Context, Target) (bool, error) {
		return false, nil
	}, func(context.Context, Target) {}, nil)

	s.AddTarget(Target{Name: "a"})
	if _, ok := s.targets["a"]; !ok {
		t.Fatal("expected target 'a' to be registered")
	}
	s.RemoveTarget("a")
	if _, ok := s.targets["a"]; ok {
		t.Fatal("expected target 'a' to be removed")
	}
}
