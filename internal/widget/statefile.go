package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"flexipdf/internal/flexi"
)

// State is the content of the widget state file.
type State struct {
	DocumentOpen bool      `json:"documentOpen"`
	Name         string    `json:"name"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StateFile publishes the open document to a JSON file that a widget or
// status bar polls. Each Notify replaces the file as a whole.
type StateFile struct {
	path  string
	clock flexi.Clock
}

// NewStateFile creates a StateFile writing to path.
func NewStateFile(path string, clock flexi.Clock) *StateFile {
	if clock == nil {
		clock = flexi.RealClock{}
	}
	return &StateFile{path: path, clock: clock}
}

// Path returns the state file location.
func (s *StateFile) Path() string {
	return s.path
}

func (s *StateFile) Notify(_ context.Context, state flexi.WidgetState) error {
	data, err := json.Marshal(State{
		DocumentOpen: state.DocumentOpen,
		Name:         state.Name,
		UpdatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding widget state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating widget state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".widget-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write widget state: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Read loads the state file at path. A missing file reads as no document open.
func Read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("reading widget state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decoding widget state %s: %w", path, err)
	}
	return st, nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, flexi.WidgetState) error { return nil }

var (
	_ flexi.WidgetNotifier = (*StateFile)(nil)
	_ flexi.WidgetNotifier = Nop{}
)
