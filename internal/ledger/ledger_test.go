package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "events_storage.json"))
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return l
}

func TestRecordAndSeen(t *testing.T) {
	l := newTestLedger(t)

	now := time.Now()
	if err := l.Record("join:Alice", now); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	ts, ok := l.Seen("join:Alice")
	if !ok {
		t.Fatalf("expected join:Alice to be recorded")
	}
	if !ts.Equal(now) {
		t.Fatalf("unexpected timestamp: got %v want %v", ts, now)
	}
	if _, ok := l.Seen("join:Bob"); ok {
		t.Fatalf("unexpected record for join:Bob")
	}
}

func TestRecordEvictsExpired(t *testing.T) {
	l := newTestLedger(t)

	old := time.Now().Add(-2 * time.Hour)
	if err := l.Record("leave:Alice", old); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	// The next record triggers eviction of everything past retention.
	if err := l.Record("join:Bob", time.Now()); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if _, ok := l.Seen("leave:Alice"); ok {
		t.Fatalf("expected expired leave:Alice to be evicted")
	}
	if _, ok := l.Seen("join:Bob"); !ok {
		t.Fatalf("expected join:Bob to survive eviction")
	}
}

func TestRecordIfStale(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now()

	fresh, err := l.RecordIfStale("join:Alice", now, 5*time.Minute)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !fresh {
		t.Fatalf("first record should be fresh")
	}

	fresh, err = l.RecordIfStale("join:Alice", now.Add(2*time.Minute), 5*time.Minute)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if fresh {
		t.Fatalf("record inside the window should be suppressed")
	}
	// A suppressed attempt must not refresh the stored timestamp.
	if ts, _ := l.Seen("join:Alice"); !ts.Equal(now) {
		t.Fatalf("suppressed record refreshed timestamp to %v", ts)
	}

	fresh, err = l.RecordIfStale("join:Alice", now.Add(6*time.Minute), 5*time.Minute)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !fresh {
		t.Fatalf("record past the window should be fresh again")
	}
}

func TestCleanupExpired(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Record("disconnect:Alice", time.Now().Add(-90*time.Minute)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := l.CleanupExpired(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if len(l.Lookup()) != 0 {
		t.Fatalf("expected empty ledger after cleanup, got %v", l.Lookup())
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events_storage.json")

	l1, err := New(path)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	now := time.Now().Truncate(time.Second)
	if err := l1.Record("join:Alice", now); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	l2, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen ledger: %v", err)
	}
	ts, ok := l2.Seen("join:Alice")
	if !ok {
		t.Fatalf("expected join:Alice to survive restart")
	}
	if !ts.Equal(now) {
		t.Fatalf("timestamp mismatch after restart: got %v want %v", ts, now)
	}
}

func TestLoadDropsMalformedTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events_storage.json")
	content := `{"join:Alice": "not-a-timestamp", "leave:Bob": "` + time.Now().Format(time.RFC3339) + `"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	l, err := New(path)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	table := l.Lookup()
	if _, ok := table["join:Alice"]; ok {
		t.Fatalf("malformed entry should have been dropped")
	}
	if _, ok := table["leave:Bob"]; !ok {
		t.Fatalf("valid entry should have been loaded")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Record("join:Alice", time.Now()); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	table := l.Lookup()
	delete(table, "join:Alice")
	if _, ok := l.Seen("join:Alice"); !ok {
		t.Fatalf("internal cache mutated via Lookup result")
	}
}
