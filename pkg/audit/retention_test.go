package audit

import (
	"context"
	"testing"
	"time"

	"mercator-hq/epicorbridge/internal/epicortest"
)

func TestPruner_Prune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_ = s.Insert(ctx, entryAt("expired", "query", "success", now.AddDate(0, 0, -31)))
	_ = s.Insert(ctx, entryAt("kept", "query", "success", now.AddDate(0, 0, -29)))

	p := NewPruner(s, 30, epicortest.DiscardLogger())
	p.now = func() time.Time { return now }

	deleted, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	entries, _ := s.List(ctx, Filter{})
	if len(entries) != 1 || entries[0].ID != "kept" {
		t.Errorf("unexpected remaining entries %+v", entries)
	}
}

func TestPruner_Disabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.Insert(ctx, entryAt("ancient", "query", "success", time.Unix(0, 0)))

	deleted, err := NewPruner(s, 0, nil).Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("expected nothing deleted, got %d", deleted)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := openTestStore(t)
	sched := NewScheduler(NewPruner(s, 30, epicortest.DiscardLogger()), "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sched.Start(ctx); err == nil {
		t.Error("expected error starting twice")
	}

	next := sched.NextRun()
	if next == nil || next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("expected next run at 03:00, got %v", next)
	}

	sched.Stop()
	sched.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := openTestStore(t)
	sched := NewScheduler(NewPruner(s, 30, nil), "not a schedule")

	if err := sched.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestScheduler_EmptySchedule(t *testing.T) {
	s := openTestStore(t)
	sched := NewScheduler(NewPruner(s, 30, nil), "")

	if err := sched.Start(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if sched.NextRun() != nil {
		t.Error("expected no scheduled run")
	}
}
