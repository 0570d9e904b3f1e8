package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// writeTree creates files (relative path -> content) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func pickNames(t *testing.T, root string, p *OSPicker, recursive bool) []string {
	t.Helper()
	picks, err := p.Pick([]string{root}, recursive)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	var names []string
	for _, pk := range picks {
		path, err := LocatorPath(pk.Locator)
		if err != nil {
			t.Fatalf("LocatorPath(%q) error = %v", pk.Locator, err)
		}
		rel, _ := filepath.Rel(root, path)
		names = append(names, filepath.ToSlash(rel))
	}
	sort.Strings(names)
	return names
}

func TestOSPicker_Pick(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.pdf":               "%PDF",
		"B.PDF":               "%PDF",
		"notes.txt":           "x",
		"draft-1.pdf":         "%PDF",
		"2024/c.pdf":          "%PDF",
		"scans/old/d.pdf":     "%PDF",
		IgnoreFileName:        "scans/old\n",
		"2024/" + "draft.pdf": "%PDF",
		"._a.pdf":             "apple double",
		".git/e.pdf":          "%PDF",
		"__MACOSX/f.pdf":      "%PDF",
	})

	tests := []struct {
		name      string
		ignore    []string
		recursive bool
		want      []string
	}{
		{"top level only", nil, false, []string{"B.PDF", "a.pdf", "draft-1.pdf"}},
		{"recursive honors .flexiignore", nil, true, []string{"2024/c.pdf", "2024/draft.pdf", "B.PDF", "a.pdf", "draft-1.pdf"}},
		{"config patterns", []string{"draft*"}, true, []string{"2024/c.pdf", "B.PDF", "a.pdf"}},
		{"config re-includes default", []string{"!._*"}, false, []string{"._a.pdf", "B.PDF", "a.pdf", "draft-1.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickNames(t, root, NewOSPicker(tt.ignore), tt.recursive)
			if len(got) != len(tt.want) {
				t.Fatalf("Pick() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Pick()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOSPicker_PickFile(t *testing.T) {
	root := writeTree(t, map[string]string{"report.pdf": "%PDF", "report.txt": "x"})
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(root, "report.pdf"), mtime, mtime); err != nil {
		t.Fatal(err)
	}
	p := NewOSPicker(nil)

	picks, err := p.Pick([]string{filepath.Join(root, "report.pdf")}, false)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if len(picks) != 1 {
		t.Fatalf("len(picks) = %d, want 1", len(picks))
	}
	if picks[0].Name != "report.pdf" {
		t.Errorf("Name = %q, want report.pdf", picks[0].Name)
	}
	if picks[0].LastModified != mtime.UnixMilli() {
		t.Errorf("LastModified = %d, want %d", picks[0].LastModified, mtime.UnixMilli())
	}

	if _, err := p.Pick([]string{filepath.Join(root, "report.txt")}, false); err == nil {
		t.Error("Pick() expected error for non-PDF file")
	}
	if _, err := p.Pick([]string{filepath.Join(root, "missing.pdf")}, false); err == nil {
		t.Error("Pick() expected error for missing file")
	}
}

func TestLocator_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "with space #1.pdf")
	loc := Locator(path)

	got, err := LocatorPath(loc)
	if err != nil {
		t.Fatalf("LocatorPath() error = %v", err)
	}
	if got != path {
		t.Errorf("LocatorPath(Locator(%q)) = %q", path, got)
	}

	for _, bad := range []string{"content://a", "file://server/share/a.pdf", "://"} {
		if _, err := LocatorPath(bad); err == nil {
			t.Errorf("LocatorPath(%q) expected error", bad)
		}
	}
}

func TestOSPicker_Grant(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{"a.pdf": "%PDF"})
	p := NewOSPicker(nil)

	if err := p.Grant(ctx, Locator(filepath.Join(root, "a.pdf"))); err != nil {
		t.Errorf("Grant() error = %v", err)
	}
	if err := p.Grant(ctx, Locator(filepath.Join(root, "gone.pdf"))); err == nil {
		t.Error("Grant() expected error for missing file")
	}
	if err := p.Grant(ctx, Locator(root)); err == nil {
		t.Error("Grant() expected error for directory")
	}
}
