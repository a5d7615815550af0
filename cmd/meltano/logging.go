// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"meltano-cli/internal/config"
)

// newLogger returns a slog logger backed by charm's terminal handler.
// Verbose mode forces debug output.
func newLogger(w io.Writer, level config.LogLevel, verbose bool) *slog.Logger {
	if verbose {
		level = config.LogLevelDebug
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: "meltano",
		Level:  charmLevel(level),
	})
	return slog.New(handler)
}

func charmLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelWarning:
		return log.WarnLevel
	case config.LogLevelError:
		return log.ErrorLevel
	case config.LogLevelCritical:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
