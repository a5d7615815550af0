// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel error wrapped by ConfigError.
var ErrConfig = errors.New("configuration error")

// ConfigError reports configuration that cannot be used. Resolution stops at
// the first one; nothing is partially merged.
type ConfigError struct {
	// Source names the offending layer or file.
	Source string
	// Setting is empty for errors that are not about one setting.
	Setting string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("%s: setting %q: %v", e.Source, e.Setting, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns ErrConfig so callers can use errors.Is for programmatic detection.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// Cause returns the underlying error.
func (e *ConfigError) Cause() error { return e.Err }
