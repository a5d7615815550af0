// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
)

// Config file formats a plugin can ask its resolved settings to be written in.
const (
	ConfigFormatJSON ConfigFormat = "json"
	ConfigFormatTOML ConfigFormat = "toml"
	ConfigFormatYAML ConfigFormat = "yaml"
)

// ErrInvalidDefinition is the sentinel error wrapped by InvalidDefinitionError.
var ErrInvalidDefinition = errors.New("invalid plugin definition")

type (
	// ConfigFormat is the serialization format of a materialized config file.
	ConfigFormat string

	// ConfigFile asks the invoker to write the resolved settings to a
	// per-invocation file and export its path.
	ConfigFile struct {
		// Env is the variable receiving the file path.
		Env string
		// Format selects the serialization.
		Format ConfigFormat
		// Name is the file name, defaulting to "config.<format>".
		Name string
	}

	// Definition is a plugin as declared in the project.
	Definition struct {
		Name      string
		Namespace string
		Kind      Kind
		Variant   string
		// PipURL marks a plugin installed into a managed isolated runtime.
		PipURL string
		// Executable is the binary name inside the runtime, or an explicit
		// path (absolute or relative to the project root) for unmanaged plugins.
		Executable string
		// Aliases are additional names the plugin can be invoked by.
		Aliases    []string
		Settings   []Setting
		Commands   map[string]Command
		ConfigFile *ConfigFile
	}

	// InvalidDefinitionError collects field-level validation errors.
	InvalidDefinitionError struct {
		Name        string
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid plugin %q: %v", e.Name, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidDefinition so callers can use errors.Is for programmatic detection.
func (e *InvalidDefinitionError) Unwrap() error { return ErrInvalidDefinition }

// Managed reports whether the plugin runs from a managed isolated runtime.
func (d *Definition) Managed() bool {
	return d.PipURL != ""
}

// ExecutableName returns the declared executable, defaulting to the plugin name.
func (d *Definition) ExecutableName() string {
	if d.Executable != "" {
		return d.Executable
	}
	return d.Name
}

// RuntimeNamespace returns the namespace used for the runtime directory.
// Runtimes are grouped by kind so that an extractor and a loader sharing a
// name never share a runtime.
func (d *Definition) RuntimeNamespace() string {
	return d.Kind.String()
}

// EnvPrefix returns the plugin-namespaced variable prefix, e.g. "TAP_MOCK".
func (d *Definition) EnvPrefix() string {
	return sanitizeEnv(d.Name)
}

// Setting returns the declared setting with the given name.
func (d *Definition) Setting(name string) (Setting, bool) {
	for _, s := range d.Settings {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// SettingEnv returns every environment variable name the setting is exposed
// under: plugin-namespaced, kind-namespaced, then custom Env and Aliases.
// Duplicates are dropped while preserving order.
func (d *Definition) SettingEnv(s Setting) []string {
	names := []string{
		EnvName(d.Name, s.Name),
		EnvName("MELTANO_"+d.Kind.Verb(), s.Name),
	}
	if s.Env != "" {
		names = append(names, s.Env)
	}
	names = append(names, s.Aliases...)

	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Registry returns the command registry for this plugin.
func (d *Definition) Registry() *Registry {
	return NewRegistry(d.Name, d.Commands)
}

// Validate checks the definition for errors a project file schema cannot catch.
func (d *Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if err := d.Kind.Validate(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool, len(d.Settings))
	for _, s := range d.Settings {
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("setting %q declared twice", s.Name))
		}
		seen[s.Name] = true
		if err := s.Kind.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("setting %q: %w", s.Name, err))
		}
	}
	if cf := d.ConfigFile; cf != nil {
		if cf.Env == "" {
			errs = append(errs, errors.New("config_file.env must not be empty"))
		}
		switch cf.Format {
		case ConfigFormatJSON, ConfigFormatTOML, ConfigFormatYAML:
		default:
			errs = append(errs, fmt.Errorf("config_file.format %q is not one of json, toml, yaml", cf.Format))
		}
	}
	if len(errs) > 0 {
		return &InvalidDefinitionError{Name: d.Name, FieldErrors: errs}
	}
	return nil
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	out := &Definition{}
	if err := copier.CopyWithOption(out, d, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched types, which cannot happen for
		// identical source and destination.
		panic(fmt.Sprintf("plugin: clone %q: %v", d.Name, err))
	}
	return out
}

// With returns a copy of the definition with fn applied to it. The receiver
// is left untouched.
func (d *Definition) With(fn func(*Definition)) *Definition {
	out := d.Clone()
	fn(out)
	return out
}

// FileName returns the configured file name or the format default.
func (c *ConfigFile) FileName() string {
	if c.Name != "" {
		return c.Name
	}
	return "config." + string(c.Format)
}
