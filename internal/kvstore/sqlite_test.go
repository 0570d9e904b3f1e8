package kvstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

// newTestSQLiteStore creates an in-memory store with schema applied.
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	return s
}

func TestSQLiteStore_CheckMigrations(t *testing.T) {
	t.Run("fresh database needs migration", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		defer s.Close()

		err = s.CheckMigrations()
		if err == nil {
			t.Fatal("CheckMigrations() expected error for fresh database")
		}
		if !strings.Contains(err.Error(), "needs migration") {
			t.Errorf("CheckMigrations() error = %q, want mention of migration", err)
		}
	})

	t.Run("up to date after MigrateUp", func(t *testing.T) {
		s := newTestSQLiteStore(t)
		if err := s.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func TestSQLiteStore_Put_UpdatesTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if err := s.Put(ctx, "currentFolderId_v1", "root"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "currentFolderId_v1", "f1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM kv WHERE updated_at IS NOT NULL").Scan(&rows); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1 (upsert should not duplicate)", rows)
	}
}

func TestSQLiteStore_Keys_Sorted(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for _, k := range []string{"theme_v1", "folders_v1", "pdfFiles_v1"} {
		if err := s.Put(ctx, k, "x"); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := "folders_v1,pdfFiles_v1,theme_v1"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("Keys() = %s, want %s", got, want)
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(filepath.Join(dir, SQLiteFileName))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	if err := s.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if err := s.Put(ctx, "pdfFiles_v1", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	backupPath := filepath.Join(dir, "backup.db")
	if err := s.BackupTo(backupPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := NewSQLiteStore(backupPath)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()

	if err := restored.CheckMigrations(); err != nil {
		t.Errorf("backup CheckMigrations() error = %v", err)
	}
	v, ok, err := restored.Get(ctx, "pdfFiles_v1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if v != `[{"id":"1"}]` {
		t.Errorf("Get() = %q", v)
	}
}
