// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
var ErrInvalidLoadOptions = errors.New("invalid load options")

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
		// Environ supplies MELTANO_ overrides; nil reads the process environment.
		Environ func() []string
	}

	// InvalidLoadOptionsError reports whitespace-only paths.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider backed by the filesystem.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects paths that are set but blank.
func (o LoadOptions) Validate() error {
	var errs []error
	if o.ConfigFilePath != "" && strings.TrimSpace(o.ConfigFilePath) == "" {
		errs = append(errs, fmt.Errorf("config file path: must not be blank"))
	}
	if o.ConfigDirPath != "" && strings.TrimSpace(o.ConfigDirPath) == "" {
		errs = append(errs, fmt.Errorf("config dir path: must not be blank"))
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidLoadOptions so callers can use errors.Is for programmatic detection.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }
