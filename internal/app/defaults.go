package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override the default locations.
const (
	EnvConfigPath = "FLEXIPDF_CONFIG_PATH"
	EnvHome       = "FLEXIPDF_HOME"
)

// Defaults holds the default file locations.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
//   - FLEXIPDF_CONFIG_PATH: config file location (default: ~/.config/flexipdf.toml)
//   - FLEXIPDF_HOME: base directory for library data (default: ~/.local/share/flexipdf)
func GetDefaults() (Defaults, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "flexipdf.toml")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "flexipdf")
	if err != nil {
		return Defaults{}, err
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the value of env if set, otherwise the path under
// the user's home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
