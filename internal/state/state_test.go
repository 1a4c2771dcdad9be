package state

import (
	"context"
	"testing"
	"time"
)

func TestMemoryHappiness(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	got, err := svc.Happiness(ctx)
	if err != nil {
		t.Fatalf("Happiness() error = %v", err)
	}
	if got != DefaultHappiness {
		t.Errorf("initial happiness = %d, want %d", got, DefaultHappiness)
	}

	got, err = svc.AdjustHappiness(ctx, -30)
	if err != nil {
		t.Fatalf("AdjustHappiness() error = %v", err)
	}
	if got != DefaultHappiness-30 {
		t.Errorf("happiness = %d, want %d", got, DefaultHappiness-30)
	}

	got, _ = svc.AdjustHappiness(ctx, -1000)
	if got != 0 {
		t.Errorf("happiness = %d, want clamp at 0", got)
	}

	got, _ = svc.AdjustHappiness(ctx, 10)
	if got != 10 {
		t.Errorf("happiness = %d, want 10", got)
	}
}

func TestMemoryStaffActivity(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	window := 5 * time.Minute

	active, err := svc.StaffActiveWithin(ctx, "t1", window)
	if err != nil {
		t.Fatalf("StaffActiveWithin() error = %v", err)
	}
	if active {
		t.Error("no activity recorded yet, want inactive")
	}

	if err := svc.TouchStaffActivity(ctx, "t1", time.Now()); err != nil {
		t.Fatalf("TouchStaffActivity() error = %v", err)
	}
	active, _ = svc.StaffActiveWithin(ctx, "t1", window)
	if !active {
		t.Error("recent touch not reported active")
	}

	active, _ = svc.StaffActiveWithin(ctx, "other", window)
	if active {
		t.Error("activity leaked across tickets")
	}

	// a touch older than the window no longer counts
	_ = svc.TouchStaffActivity(ctx, "t2", time.Now().Add(-window-time.Second))
	active, _ = svc.StaffActiveWithin(ctx, "t2", window)
	if active {
		t.Error("stale touch reported active")
	}

	if err := svc.ClearStaffActivity(ctx, "t1"); err != nil {
		t.Fatalf("ClearStaffActivity() error = %v", err)
	}
	active, _ = svc.StaffActiveWithin(ctx, "t1", window)
	if active {
		t.Error("cleared activity still reported active")
	}
}
