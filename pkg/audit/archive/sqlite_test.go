package archive

import (
	"context"
	"path/filepath"
	"testing"

	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/rules"
)

func openTestMirror(t *testing.T) *Mirror {
	t.Helper()
	mirror, err := Open(Config{Path: filepath.Join(t.TempDir(), "audit.db")}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { mirror.Close() })
	return mirror
}

func testEntry(id, timestamp, result string) *audit.Entry {
	return &audit.Entry{
		ID:           id,
		Timestamp:    timestamp,
		Output:       &rules.Decision{Result: rules.Action(result), Reason: "r", Score: 50},
		PreviousHash: audit.GenesisHash,
		Hash:         audit.GenesisHash,
	}
}

func TestMirror_RecordAndQuery(t *testing.T) {
	mirror := openTestMirror(t)
	ctx := context.Background()

	entries := []*audit.Entry{
		testEntry("e1", "2026-03-01T10:00:00.000Z", "APPROVED"),
		testEntry("e2", "2026-03-01T11:00:00.000Z", "REJECTED"),
		testEntry("e3", "2026-03-01T12:00:00.000Z", "REJECTED"),
	}
	for _, entry := range entries {
		if err := mirror.Record(ctx, entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	count, err := mirror.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	rejected, err := mirror.Query(ctx, Query{Result: "REJECTED"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rejected) != 2 {
		t.Errorf("rejected rows = %d, want 2", len(rejected))
	}
	// Newest first.
	if len(rejected) == 2 && rejected[0].ID != "e3" {
		t.Errorf("first row = %s, want e3", rejected[0].ID)
	}

	window, err := mirror.Query(ctx, Query{
		StartDate: "2026-03-01T10:30:00.000Z",
		EndDate:   "2026-03-01T11:30:00.000Z",
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(window) != 1 || window[0].ID != "e2" {
		t.Errorf("window rows = %v, want just e2", window)
	}
}

func TestMirror_RecordIsIdempotent(t *testing.T) {
	mirror := openTestMirror(t)
	ctx := context.Background()

	entry := testEntry("dup", "2026-03-01T10:00:00.000Z", "APPROVED")
	for i := 0; i < 3; i++ {
		if err := mirror.Record(ctx, entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	count, err := mirror.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after replays, want 1", count)
	}
}

func TestMirror_DeleteBefore(t *testing.T) {
	mirror := openTestMirror(t)
	ctx := context.Background()

	mustRecord := func(e *audit.Entry) {
		t.Helper()
		if err := mirror.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	mustRecord(testEntry("old", "2026-01-01T00:00:00.000Z", "APPROVED"))
	mustRecord(testEntry("new", "2026-03-01T00:00:00.000Z", "APPROVED"))

	deleted, err := mirror.DeleteBefore(ctx, "2026-02-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	rows, err := mirror.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "new" {
		t.Errorf("surviving rows = %v, want just the new entry", rows)
	}
}

func TestMirror_SyncFromJournal(t *testing.T) {
	log, err := audit.Open(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatalf("audit.Open failed: %v", err)
	}
	defer log.Close()

	for i := 0; i < 3; i++ {
		decision := &rules.Decision{Result: rules.ActionApproved, Reason: "ok", Score: 85}
		if _, err := log.Append(decision, map[string]any{"i": float64(i)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	mirror := openTestMirror(t)
	recorded, err := mirror.Sync(context.Background(), log)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if recorded != 3 {
		t.Errorf("synced = %d, want 3", recorded)
	}

	// The journal itself is untouched by archive operations.
	if !log.VerifyFull() {
		t.Error("journal broken after archive sync")
	}
}
