// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	LogLevelDebug    LogLevel = "debug"
	LogLevelInfo     LogLevel = "info"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto  ColorScheme = "auto"
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidColorScheme is the sentinel error wrapped by InvalidColorSchemeError.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	logLevels    = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical}
	colorSchemes = []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight}
)

type (
	// LogLevel is the CLI log verbosity.
	LogLevel string

	// InvalidLogLevelError is returned for unrecognized log levels.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ColorScheme selects the terminal palette.
	ColorScheme string

	// InvalidColorSchemeError is returned for unrecognized color schemes.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Config is the CLI configuration.
	Config struct {
		CLI                CLIConfig     `json:"cli" mapstructure:"cli"`
		DefaultEnvironment string        `json:"default_environment,omitempty" mapstructure:"default_environment"`
		Install            InstallConfig `json:"install" mapstructure:"install"`
		UI                 UIConfig      `json:"ui" mapstructure:"ui"`
	}

	CLIConfig struct {
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}

	InstallConfig struct {
		// Command is empty to use the installer's built-in command.
		Command string `json:"command,omitempty" mapstructure:"command"`
	}

	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError collects every invalid field of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		CLI: CLIConfig{LogLevel: LogLevelInfo},
		UI:  UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// Validate checks fields that can bypass the CUE schema through
// environment overrides.
func (c Config) Validate() error {
	var errs []error
	if err := c.CLI.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (l LogLevel) String() string { return string(l) }

// Validate returns an error when l is not a known level.
func (l LogLevel) Validate() error {
	if slices.Contains(logLevels, l) {
		return nil
	}
	return &InvalidLogLevelError{Value: l}
}

func (s ColorScheme) String() string { return string(s) }

// Validate returns an error when s is not a known scheme.
func (s ColorScheme) Validate() error {
	if slices.Contains(colorSchemes, s) {
		return nil
	}
	return &InvalidColorSchemeError{Value: s}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warning, error, critical)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel so callers can use errors.Is for programmatic detection.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is for programmatic detection.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is for programmatic detection.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
