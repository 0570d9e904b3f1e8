package widget

import (
	"fmt"

	"flexipdf/internal/config"
	"flexipdf/internal/flexi"
)

// NewNotifierFromConfig creates a WidgetNotifier based on the widget config type.
func NewNotifierFromConfig(cfg config.WidgetConfig, clock flexi.Clock) (flexi.WidgetNotifier, error) {
	switch cfg.Type {
	case "statefile":
		if cfg.StatePath == "" {
			return nil, fmt.Errorf("statefile widget requires state_path to be set")
		}
		return NewStateFile(cfg.StatePath, clock), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown widget type: %s", cfg.Type)
	}
}
