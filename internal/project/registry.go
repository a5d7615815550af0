// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"meltano-cli/pkg/plugin"
)

var (
	// ErrPluginNotFound is the sentinel error wrapped by PluginNotFoundError.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrAmbiguousPlugin is the sentinel error wrapped by AmbiguousPluginError.
	ErrAmbiguousPlugin = errors.New("ambiguous plugin name")
)

type (
	// PluginNotFoundError is returned when no plugin matches a lookup.
	PluginNotFoundError struct {
		Kind plugin.Kind
		Name string
	}

	// AmbiguousPluginError is returned when a name matches plugins of
	// several kinds and no kind was given.
	AmbiguousPluginError struct {
		Name  string
		Kinds []plugin.Kind
	}
)

// Error implements the error interface.
func (e *PluginNotFoundError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s '%s' is not known to Meltano", e.Kind.Singular(), e.Name)
	}
	return fmt.Sprintf("plugin '%s' is not known to Meltano", e.Name)
}

// Unwrap returns ErrPluginNotFound so callers can use errors.Is for programmatic detection.
func (e *PluginNotFoundError) Unwrap() error { return ErrPluginNotFound }

// Error implements the error interface.
func (e *AmbiguousPluginError) Error() string {
	kinds := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("plugin '%s' is declared as %s; pass --plugin-type to choose", e.Name, strings.Join(kinds, " and "))
}

// Unwrap returns ErrAmbiguousPlugin so callers can use errors.Is for programmatic detection.
func (e *AmbiguousPluginError) Unwrap() error { return ErrAmbiguousPlugin }

// ParseInvocation splits "tap-mock:discover" into plugin and command names.
// A reference without a colon names no command.
func ParseInvocation(ref string) (name, command string) {
	name, command, _ = strings.Cut(ref, ":")
	return name, command
}

// FindPlugin returns the plugin of the given kind called name.
func (p *Project) FindPlugin(kind plugin.Kind, name string) (*plugin.Definition, error) {
	for _, e := range p.plugins[kind] {
		if e.def.Name == name {
			return e.def, nil
		}
	}
	return nil, &PluginNotFoundError{Kind: kind, Name: name}
}

// FindPluginByInvocationAlias returns the plugin whose name or one of whose
// aliases is alias. An empty kind searches every kind.
func (p *Project) FindPluginByInvocationAlias(alias string, kind plugin.Kind) (*plugin.Definition, error) {
	var matches []*plugin.Definition
	for _, k := range plugin.Kinds() {
		if kind != "" && k != kind {
			continue
		}
		for _, e := range p.plugins[k] {
			if e.def.Name == alias || slices.Contains(e.def.Aliases, alias) {
				matches = append(matches, e.def)
				break
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, &PluginNotFoundError{Kind: kind, Name: alias}
	case 1:
		return matches[0], nil
	default:
		kinds := make([]plugin.Kind, len(matches))
		for i, m := range matches {
			kinds[i] = m.Kind
		}
		return nil, &AmbiguousPluginError{Name: alias, Kinds: kinds}
	}
}

// Plugins returns every plugin of the given kind in declaration order.
func (p *Project) Plugins(kind plugin.Kind) []*plugin.Definition {
	out := make([]*plugin.Definition, 0, len(p.plugins[kind]))
	for _, e := range p.plugins[kind] {
		out = append(out, e.def)
	}
	return out
}
