// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"meltano-cli/pkg/plugin"
)

type (
	// Stack resolves the settings of one plugin across ordered layers.
	Stack struct {
		def    *plugin.Definition
		layers []Layer
	}

	// ResolveOptions controls what Resolve returns.
	ResolveOptions struct {
		// Extras includes settings supplied by config but not declared by
		// the plugin.
		Extras bool
	}

	// ResolvedSetting is the outcome of resolving one setting.
	ResolvedSetting struct {
		Setting plugin.Setting
		// Value is nil when no layer holds a value.
		Value any
		// Text is Value formatted for the environment.
		Text   string
		Source Source
		// Env lists every alias the value is exposed under.
		Env   []string
		Extra bool
	}

	// Resolved is the ordered result of a resolution: declared settings in
	// declaration order, then extras sorted by name.
	Resolved struct {
		settings []ResolvedSetting
	}
)

var errRequired = errors.New("required setting has no value")

// NewStack returns a stack over layers, given lowest precedence first.
func NewStack(def *plugin.Definition, layers ...Layer) *Stack {
	return &Stack{def: def, layers: layers}
}

// Resolve walks every layer for every setting.
func (s *Stack) Resolve(opts ResolveOptions) (*Resolved, error) {
	out := &Resolved{settings: make([]ResolvedSetting, 0, len(s.def.Settings))}

	for _, setting := range s.def.Settings {
		rs, err := s.resolveOne(setting, false)
		if err != nil {
			return nil, err
		}
		if setting.Required && rs.Source == "" {
			return nil, &ConfigError{Source: s.def.Name, Setting: setting.Name, Err: errRequired}
		}
		out.settings = append(out.settings, rs)
	}

	if !opts.Extras {
		return out, nil
	}
	for _, name := range s.extraNames() {
		rs, err := s.resolveOne(plugin.Setting{Name: name}, true)
		if err != nil {
			return nil, err
		}
		out.settings = append(out.settings, rs)
	}
	return out, nil
}

func (s *Stack) resolveOne(setting plugin.Setting, extra bool) (ResolvedSetting, error) {
	key := Key{Setting: setting, Env: s.def.SettingEnv(setting)}
	rs := ResolvedSetting{Setting: setting, Env: key.Env, Extra: extra}

	for _, layer := range s.layers {
		v, ok, err := layer.Get(key)
		if err != nil {
			return rs, &ConfigError{Source: string(layer.Source()), Setting: setting.Name, Err: err}
		}
		if !ok {
			continue
		}
		if text, isString := v.(string); isString && setting.Kind != "" {
			v, err = ParseValue(setting.Kind, text)
		} else {
			v, err = normalize(setting.Kind, v)
		}
		if err != nil {
			return rs, &ConfigError{Source: string(layer.Source()), Setting: setting.Name, Err: err}
		}
		rs.Value, rs.Source = v, layer.Source()
	}

	if rs.Source == "" {
		return rs, nil
	}
	text, err := FormatValue(rs.Value)
	if err != nil {
		return rs, &ConfigError{Source: string(rs.Source), Setting: setting.Name, Err: err}
	}
	rs.Text = text
	return rs, nil
}

// extraNames returns config names no declared setting covers.
func (s *Stack) extraNames() []string {
	declared := make(map[string]bool, len(s.def.Settings))
	for _, st := range s.def.Settings {
		declared[st.Name] = true
	}
	covered := func(name string) bool {
		if declared[name] {
			return true
		}
		for prefix := range declared {
			if strings.HasPrefix(name, prefix+".") {
				return true
			}
		}
		return false
	}

	names := make(map[string]struct{})
	for _, layer := range s.layers {
		el, ok := layer.(ExtrasLayer)
		if !ok {
			continue
		}
		for _, k := range el.Keys() {
			if !covered(k) {
				names[k] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(names))
}

// Settings returns every resolved setting, including ones without a value.
func (r *Resolved) Settings() []ResolvedSetting {
	return slices.Clone(r.settings)
}

// Get returns the resolved setting called name.
func (r *Resolved) Get(name string) (ResolvedSetting, bool) {
	for _, rs := range r.settings {
		if rs.Setting.Name == name {
			return rs, true
		}
	}
	return ResolvedSetting{}, false
}

// Env fans every present value out to its aliases.
func (r *Resolved) Env() map[string]string {
	env := make(map[string]string)
	for _, rs := range r.settings {
		if rs.Source == "" {
			continue
		}
		for _, name := range rs.Env {
			env[name] = rs.Text
		}
	}
	return env
}

// AsMap returns name to typed value for every present setting. With process
// set, dotted names are expanded into nested objects, which is the shape a
// plugin reads its config file in.
func (r *Resolved) AsMap(process bool) map[string]any {
	flat := make(map[string]any)
	for _, rs := range r.settings {
		if rs.Source != "" {
			flat[rs.Setting.Name] = rs.Value
		}
	}
	if !process {
		return flat
	}
	return expandDotted(flat)
}

func expandDotted(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for _, name := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(name, ".")
		node := out
		placed := true
		for _, p := range parts[:len(parts)-1] {
			child, exists := node[p]
			if !exists {
				next := make(map[string]any)
				node[p] = next
				node = next
				continue
			}
			m, ok := child.(map[string]any)
			if !ok {
				placed = false
				break
			}
			m = maps.Clone(m)
			node[p] = m
			node = m
		}
		if placed {
			node[parts[len(parts)-1]] = flat[name]
		} else {
			out[name] = flat[name]
		}
	}
	return out
}
