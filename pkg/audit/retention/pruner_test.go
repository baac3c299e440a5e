package retention

import (
	"context"
	"path/filepath"
	"testing"

	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/audit/archive"
	"hisba-ai/mizan/pkg/rules"
)

func TestPruner_PruneOnce(t *testing.T) {
	mirror, err := archive.Open(archive.Config{Path: filepath.Join(t.TempDir(), "audit.db")}, nil)
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer mirror.Close()

	ctx := context.Background()
	old := &audit.Entry{
		ID:           "old",
		Timestamp:    "2020-01-01T00:00:00.000Z",
		Output:       &rules.Decision{Result: rules.ActionApproved, Score: 85},
		PreviousHash: audit.GenesisHash,
		Hash:         audit.GenesisHash,
	}
	if err := mirror.Record(ctx, old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	pruner := NewPruner(mirror, Config{RetentionDays: 30}, nil)
	deleted, err := pruner.PruneOnce(ctx)
	if err != nil {
		t.Fatalf("PruneOnce failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want the expired row", deleted)
	}
}

func TestPruner_InvalidSchedule(t *testing.T) {
	mirror, err := archive.Open(archive.Config{Path: filepath.Join(t.TempDir(), "audit.db")}, nil)
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer mirror.Close()

	pruner := NewPruner(mirror, Config{Schedule: "not a cron expression"}, nil)
	if err := pruner.Start(context.Background()); err == nil {
		t.Error("Start accepted an invalid cron schedule")
	}
}

func TestPruner_EmptyScheduleIsNoop(t *testing.T) {
	mirror, err := archive.Open(archive.Config{Path: filepath.Join(t.TempDir(), "audit.db")}, nil)
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer mirror.Close()

	pruner := NewPruner(mirror, Config{}, nil)
	if err := pruner.Start(context.Background()); err != nil {
		t.Errorf("Start with empty schedule failed: %v", err)
	}
	pruner.Stop()
}
