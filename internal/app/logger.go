package app

import (
	"strings"

	"github.com/charlesng35/noticeboard/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level,
// defaulting to info, and format (json or console).
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, format)
}
