package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/custom/flexipdf.toml")
		t.Setenv(EnvHome, "/custom/flexipdf")

		got, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		want := Defaults{
			ConfigPath: "/custom/flexipdf.toml",
			BaseDir:    "/custom/flexipdf",
			LogDir:     "/custom/flexipdf/log",
		}
		if got != want {
			t.Errorf("GetDefaults() = %+v, want %+v", got, want)
		}
	})

	t.Run("falls back to home directory", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvHome, "")

		homeDir, err := os.UserHomeDir()
		if err != nil {
			t.Skip("cannot determine home directory")
		}

		got, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if want := filepath.Join(homeDir, ".config", "flexipdf.toml"); got.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", got.ConfigPath, want)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "flexipdf")
		if got.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, wantBase)
		}
		if got.LogDir != filepath.Join(wantBase, "log") {
			t.Errorf("LogDir = %q", got.LogDir)
		}
	})
}
