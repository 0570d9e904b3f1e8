package widget

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"flexipdf/internal/config"
	"flexipdf/internal/flexi"
	"flexipdf/internal/testutil"
)

func TestStateFile_Notify(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	path := filepath.Join(t.TempDir(), "state", "widget.json")
	s := NewStateFile(path, clock)

	if err := s.Notify(ctx, flexi.WidgetState{DocumentOpen: true, Name: "a.pdf"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !got.DocumentOpen || got.Name != "a.pdf" {
		t.Errorf("Read() = %+v, want open a.pdf", got)
	}
	if !got.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, clock.Now())
	}

	if err := s.Notify(ctx, flexi.WidgetState{}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	got, err = Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.DocumentOpen || got.Name != "" {
		t.Errorf("Read() = %+v, want closed", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("found %d entries, want only widget.json", len(entries))
	}
}

func TestRead(t *testing.T) {
	t.Run("missing file reads as closed", func(t *testing.T) {
		got, err := Read(filepath.Join(t.TempDir(), "widget.json"))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got.DocumentOpen {
			t.Errorf("Read() = %+v, want closed", got)
		}
	})

	t.Run("garbage is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "widget.json")
		if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Read(path); err == nil {
			t.Error("Read() expected error")
		}
	})
}

func TestNewNotifierFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.WidgetConfig
		want    string
		wantErr bool
	}{
		{name: "statefile", cfg: config.WidgetConfig{Type: "statefile", StatePath: "/tmp/w.json"}, want: "*widget.StateFile"},
		{name: "none", cfg: config.WidgetConfig{Type: "none"}, want: "widget.Nop"},
		{name: "unset", cfg: config.WidgetConfig{}, want: "widget.Nop"},
		{name: "statefile without path", cfg: config.WidgetConfig{Type: "statefile"}, wantErr: true},
		{name: "unknown", cfg: config.WidgetConfig{Type: "dbus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewNotifierFromConfig(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewNotifierFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if typ := typeName(got); typ != tt.want {
				t.Errorf("NewNotifierFromConfig() = %s, want %s", typ, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *StateFile:
		return "*widget.StateFile"
	case Nop:
		return "widget.Nop"
	default:
		return "unknown"
	}
}
