// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"maps"
	"slices"

	"meltano-cli/pkg/plugin"
)

// Source names, in precedence order.
const (
	SourceDefault     Source = "default"
	SourceProject     Source = "meltano_yml"
	SourceEnvironment Source = "environment"
	SourceDotenv      Source = "dotenv"
	SourceEnv         Source = "env"
	SourceOverride    Source = "override"
)

type (
	// Source identifies where a resolved value came from.
	Source string

	// Key identifies a setting together with every environment name it is
	// exposed under.
	Key struct {
		Setting plugin.Setting
		Env     []string
	}

	// Layer is one participant in resolution.
	Layer interface {
		Source() Source
		// Get returns the layer's value for key. A layer that holds the
		// string form of a value returns it as a string; the stack converts
		// it to the declared kind.
		Get(key Key) (value any, ok bool, err error)
	}

	// ExtrasLayer is implemented by layers that can hold values for
	// settings the plugin does not declare.
	ExtrasLayer interface {
		Layer
		// Keys lists the setting names the layer holds values for.
		Keys() []string
	}

	// DefaultLayer serves declared defaults.
	DefaultLayer struct{}

	// MapLayer serves structured config keyed by setting name, such as the
	// config block of a plugin in the project file.
	MapLayer struct {
		source Source
		values map[string]any
	}

	// EnvLayer serves string values keyed by environment variable name. A
	// setting is found under any of its aliases; the first alias present
	// wins.
	EnvLayer struct {
		source Source
		vars   map[string]string
	}
)

// Source implements Layer.
func (DefaultLayer) Source() Source { return SourceDefault }

// Get implements Layer.
func (DefaultLayer) Get(key Key) (any, bool, error) {
	if key.Setting.Value == nil {
		return nil, false, nil
	}
	return key.Setting.Value, true, nil
}

// NewMapLayer returns a layer over values. Nested maps are flattened into
// dotted names so "auth: {token: x}" serves the setting "auth.token".
func NewMapLayer(source Source, values map[string]any) *MapLayer {
	return &MapLayer{source: source, values: flatten(values)}
}

// Source implements Layer.
func (l *MapLayer) Source() Source { return l.source }

// Get implements Layer.
func (l *MapLayer) Get(key Key) (any, bool, error) {
	v, ok := l.values[key.Setting.Name]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// Keys implements ExtrasLayer. Only leaf names are returned.
func (l *MapLayer) Keys() []string {
	leaves := maps.Clone(l.values)
	maps.DeleteFunc(leaves, func(_ string, v any) bool {
		_, nested := v.(map[string]any)
		return nested
	})
	return slices.Sorted(maps.Keys(leaves))
}

// NewEnvLayer returns a layer over environment-style variables.
func NewEnvLayer(source Source, vars map[string]string) *EnvLayer {
	return &EnvLayer{source: source, vars: vars}
}

// Source implements Layer.
func (l *EnvLayer) Source() Source { return l.source }

// Get implements Layer.
func (l *EnvLayer) Get(key Key) (any, bool, error) {
	for _, name := range key.Env {
		if v, ok := l.vars[name]; ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// flatten turns nested maps into dotted keys. A value that is an object
// setting in its own right is also kept under its own name.
func flatten(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			out[name] = v
			if nested, ok := v.(map[string]any); ok {
				walk(name, nested)
			}
		}
	}
	walk("", in)
	return out
}
