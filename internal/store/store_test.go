package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"records", "meta"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error for future schema version")
	}
}

func TestOpen_StampsSchemaVersion(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_RecordsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s, "records")
	for _, col := range []string{"id", "slot", "text", "timestamp", "creator"} {
		if !contains(columns, col) {
			t.Errorf("records table missing column %q", col)
		}
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for _, id := range []string{"A", "B", "A"} {
		if err := s1.Put(ctx, id, testRecord(id)); err != nil {
			t.Fatalf("Put(%q) failed: %v", id, err)
		}
	}
	if err := s1.InitOwner(ctx, "oracle.near"); err != nil {
		t.Fatalf("InitOwner() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	entries, err := s2.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "A" || entries[1].ID != "B" {
		t.Errorf("unexpected order after reopen: %+v", entries)
	}

	owner, ok, err := s2.Owner(ctx)
	if err != nil || !ok || owner != "oracle.near" {
		t.Errorf("Owner() = %q, %v, %v; want oracle.near", owner, ok, err)
	}
}

func TestStore_TimestampHighBit(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	want := testRecord("x")
	want.Timestamp = ^uint64(0)
	if err := s.Put(ctx, "x", want); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, found, err := s.Get(ctx, "x")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if got.Timestamp != want.Timestamp {
		t.Errorf("timestamp = %d, want %d", got.Timestamp, want.Timestamp)
	}
}

func TestStore_MaxTimestamp(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	ts, err := s.MaxTimestamp(ctx)
	if err != nil || ts != 0 {
		t.Fatalf("MaxTimestamp() on empty store = %d, %v", ts, err)
	}

	for i, id := range []string{"a", "b", "c"} {
		r := testRecord(id)
		r.Timestamp = uint64(100 - i)
		if err := s.Put(ctx, id, r); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	ts, err = s.MaxTimestamp(ctx)
	if err != nil {
		t.Fatalf("MaxTimestamp() failed: %v", err)
	}
	if ts != 100 {
		t.Errorf("MaxTimestamp() = %d, want 100", ts)
	}
}

func TestStore_MaxTimestampHighBit(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	stamps := map[string]uint64{
		"low":  5,
		"mid":  1<<63 - 1,
		"high": 1 << 63,
		"top":  ^uint64(0),
	}
	for id, ts := range stamps {
		r := testRecord(id)
		r.Timestamp = ts
		if err := s.Put(ctx, id, r); err != nil {
			t.Fatalf("Put(%s) failed: %v", id, err)
		}
	}

	ts, err := s.MaxTimestamp(ctx)
	if err != nil {
		t.Fatalf("MaxTimestamp() failed: %v", err)
	}
	if ts != ^uint64(0) {
		t.Errorf("MaxTimestamp() = %d, want %d", ts, ^uint64(0))
	}
}

func TestStore_ContextCancelled(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Put(ctx, "x", testRecord("x")); err == nil {
		t.Error("expected error for cancelled context")
	}
}
