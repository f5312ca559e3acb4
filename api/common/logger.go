package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// GetLogger returns a named sub-logger of the process-wide root logger.
// All sub-loggers share the root's level, so InitLoggers applies everywhere.
func GetLogger(name string) hclog.Logger {
	return hclog.Default().Named(name)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to hclog.Level
func parseLogLevel(level string) (hclog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return hclog.Debug, nil
	case "info":
		return hclog.Info, nil
	case "warning", "warn":
		return hclog.Warn, nil
	case "error":
		return hclog.Error, nil
	default:
		return hclog.NoLevel, fmt.Errorf("invalid log level: %s (must be one of debug, info, warn, error)", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers configures the process-wide root logger. Called once at startup
// before any request is served. Sub-loggers created via GetLogger (and the
// package-level loggers in lib/) share the root's level storage, so setting
// the level here applies to all of them.
func InitLoggers(config ServerConfig) error {
	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	root := hclog.Default()
	root.SetLevel(level)
	if f, ok := root.(hclog.OutputResettable); ok {
		_ = f.ResetOutput(&hclog.LoggerOptions{Output: os.Stdout})
	}

	return nil
}
