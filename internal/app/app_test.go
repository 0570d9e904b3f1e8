package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flexipdf/internal/config"
	"flexipdf/internal/flexi"
	"flexipdf/internal/kvstore"
	"flexipdf/internal/testutil"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.LogLevel = "error"
	cfg.Store = config.StoreConfig{Type: "memory"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *FlexiApp {
	t.Helper()
	a, err := NewFlexiApp(context.Background(), cfg, "test", Options{
		Clock: testutil.FixedClock(),
		IDs:   testutil.NewSequentialIDs(),
	})
	if err != nil {
		t.Fatalf("NewFlexiApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writePDFs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		path := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("%PDF-1.7"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFlexiApp_ImportAndList(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))
	dir := writePDFs(t, "b.pdf", "A.pdf", "sub/c.pdf")

	res, err := a.Import(ctx, []string{dir}, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(res.Added) != 3 {
		t.Fatalf("Import() added %d, want 3", len(res.Added))
	}

	docs, err := a.ListDocuments(ListOptions{})
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "A.pdf,b.pdf,c.pdf" {
		t.Errorf("ListDocuments() = %s, want sorted by name", got)
	}

	filtered, err := a.ListDocuments(ListOptions{All: true, Where: `name startsWith "b"`})
	if err != nil {
		t.Fatalf("ListDocuments(where) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "b.pdf" {
		t.Errorf("ListDocuments(where) = %v", filtered)
	}

	if _, err := a.ListDocuments(ListOptions{Where: "pages > 1"}); err == nil {
		t.Error("ListDocuments() expected error for invalid filter")
	}
}

func TestFlexiApp_ResolveFolder(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))
	lib := a.Library()

	taxes, err := lib.CreateFolder(ctx, "Taxes", flexi.RootFolderID)
	if err != nil {
		t.Fatal(err)
	}
	y2024, err := lib.CreateFolder(ctx, "2024", taxes.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "/", want: flexi.RootFolderID},
		{ref: "root", want: flexi.RootFolderID},
		{ref: taxes.ID, want: taxes.ID},
		{ref: "Taxes/2024", want: y2024.ID},
		{ref: "/Taxes/2024/..", want: taxes.ID},
		{ref: "Missing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := a.ResolveFolder(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveFolder(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveFolder(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}

	path, err := a.FolderPath(y2024.ID)
	if err != nil {
		t.Fatalf("FolderPath() error = %v", err)
	}
	if path != "/Taxes/2024" {
		t.Errorf("FolderPath() = %q, want /Taxes/2024", path)
	}

	tree, err := a.Tree()
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if !strings.Contains(tree, "Taxes/") || !strings.Contains(tree, "2024/") {
		t.Errorf("Tree() = %q", tree)
	}
}

func TestFlexiApp_ResolveDocument(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))
	dir := writePDFs(t, "a.pdf", "x/a.pdf", "b.pdf")

	if _, err := a.Import(ctx, []string{dir}, true); err != nil {
		t.Fatal(err)
	}

	b, err := a.ResolveDocument("b.pdf")
	if err != nil {
		t.Fatalf("ResolveDocument(name) error = %v", err)
	}
	if got, err := a.ResolveDocument(b.ID); err != nil || got.ID != b.ID {
		t.Errorf("ResolveDocument(id) = %v, %v", got, err)
	}
	if _, err := a.ResolveDocument("a.pdf"); err == nil {
		t.Error("ResolveDocument() expected ambiguity error")
	}
	if _, err := a.ResolveDocument("zzz.pdf"); !errors.Is(err, flexi.ErrNotFound) {
		t.Errorf("ResolveDocument() error = %v, want ErrNotFound", err)
	}
}

func TestFlexiApp_OpenDocumentUpdatesWidget(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	a := newTestApp(t, cfg)
	dir := writePDFs(t, "manual.pdf")

	res, err := a.Import(ctx, []string{dir}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Library().OpenDocument(ctx, res.Added[0].ID); err != nil {
		t.Fatalf("OpenDocument() error = %v", err)
	}

	st, err := a.WidgetStatus()
	if err != nil {
		t.Fatalf("WidgetStatus() error = %v", err)
	}
	if !st.DocumentOpen || st.Name != "manual.pdf" {
		t.Errorf("WidgetStatus() = %+v", st)
	}
}

func TestFlexiApp_Snapshot(t *testing.T) {
	ctx := context.Background()
	passphrase := func() (string, error) { return "pw", nil }

	for _, encType := range []string{"none", "age"} {
		t.Run(encType, func(t *testing.T) {
			cfg := newTestConfig(t)
			cfg.Encryption = config.EncryptionConfig{Type: encType, WorkFactor: 10}
			src := newTestApp(t, cfg)
			if _, err := src.Library().CreateFolder(ctx, "Taxes", flexi.RootFolderID); err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(t.TempDir(), "library.snapshot")
			if _, err := src.ExportSnapshot(ctx, path, passphrase); err != nil {
				t.Fatalf("ExportSnapshot() error = %v", err)
			}
			if _, err := src.ExportSnapshot(ctx, path, passphrase); err == nil {
				t.Error("ExportSnapshot() expected error for existing file")
			}

			dst := newTestApp(t, newTestConfig(t))
			if _, err := dst.ImportSnapshot(ctx, path, passphrase, true); err != nil {
				t.Fatalf("ImportSnapshot() error = %v", err)
			}
			folders, err := dst.Library().AllFolders()
			if err != nil {
				t.Fatal(err)
			}
			if len(folders) != 1 || folders[0].Name != "Taxes" {
				t.Errorf("folders after import = %+v", folders)
			}
		})
	}
}

func TestFlexiApp_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Store = config.StoreConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}

	if _, err := NewFlexiApp(ctx, cfg, "ls", Options{}); err == nil {
		t.Fatal("NewFlexiApp() expected error before migration")
	}

	if err := MigrateStore(ctx, cfg); err != nil {
		t.Fatalf("MigrateStore() error = %v", err)
	}
	if err := MigrateStore(ctx, cfg); err != nil {
		t.Fatalf("second MigrateStore() error = %v", err)
	}

	a := newTestApp(t, cfg)
	backup := filepath.Join(t.TempDir(), "backup.db")
	if err := a.BackupStore(backup); err != nil {
		t.Fatalf("BackupStore() error = %v", err)
	}

	restored, err := kvstore.NewSQLiteStore(backup)
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Close()
	v, ok, err := restored.Get(ctx, flexi.KeySchemaVersion)
	if err != nil || !ok || v != "1" {
		t.Errorf("backup schemaVersion = %q, %v, %v", v, ok, err)
	}
}

func TestFlexiApp_BackupStoreNeedsSQLite(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))
	if err := a.BackupStore(filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("BackupStore() expected error for memory store")
	}
}
