// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Setting value kinds.
const (
	SettingString   SettingKind = "string"
	SettingInteger  SettingKind = "integer"
	SettingBoolean  SettingKind = "boolean"
	SettingArray    SettingKind = "array"
	SettingObject   SettingKind = "object"
	SettingPassword SettingKind = "password"
)

// ErrInvalidSettingKind is the sentinel error wrapped by InvalidSettingKindError.
var ErrInvalidSettingKind = errors.New("invalid setting kind")

type (
	// SettingKind is the declared value type of a setting.
	// The zero value behaves like SettingString.
	SettingKind string

	// InvalidSettingKindError is returned when a SettingKind value is not recognized.
	InvalidSettingKindError struct {
		Value SettingKind
	}

	// Setting is a named configuration value declared by a plugin.
	Setting struct {
		// Name is the setting name, e.g. "start_date" or "_select".
		Name string
		// Kind is the declared value type.
		Kind SettingKind
		// Value is the declared default, nil when the setting has none.
		Value any
		// Env is an optional custom environment variable name.
		Env string
		// Aliases are additional environment variable names exposing the value.
		Aliases []string
		// Required marks settings that must resolve to a value.
		Required bool
		// Description is shown in introspection output.
		Description string
	}
)

// Error implements the error interface.
func (e *InvalidSettingKindError) Error() string {
	return fmt.Sprintf("invalid setting kind %q", e.Value)
}

// Unwrap returns ErrInvalidSettingKind so callers can use errors.Is for programmatic detection.
func (e *InvalidSettingKindError) Unwrap() error { return ErrInvalidSettingKind }

// Validate returns nil if k is empty or a known kind.
func (k SettingKind) Validate() error {
	switch k {
	case "", SettingString, SettingInteger, SettingBoolean, SettingArray, SettingObject, SettingPassword:
		return nil
	default:
		return &InvalidSettingKindError{Value: k}
	}
}

// Structured reports whether values of this kind travel as JSON text.
func (k SettingKind) Structured() bool {
	return k == SettingArray || k == SettingObject
}

// EnvName joins prefix and name into an environment variable name:
// upper-cased, with every character outside [A-Z0-9_] replaced by '_'.
// EnvName("tap-mock", "_select") is "TAP_MOCK__SELECT".
func EnvName(prefix, name string) string {
	return sanitizeEnv(prefix) + "_" + sanitizeEnv(name)
}

func sanitizeEnv(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
