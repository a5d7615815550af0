// SPDX-License-Identifier: MPL-2.0

package project

import (
	"fmt"
	"maps"

	"github.com/spf13/cast"

	"meltano-cli/pkg/plugin"
)

// The raw* types mirror the schema in project_schema.cue. They are decoded
// from the unified CUE value and converted into domain types by toDomain.
type (
	rawProject struct {
		DefaultEnvironment string                 `json:"default_environment"`
		Env                map[string]any         `json:"env"`
		Plugins            map[string][]rawPlugin `json:"plugins"`
		Environments       []rawEnvironment       `json:"environments"`
	}

	rawPlugin struct {
		Name       string         `json:"name"`
		Namespace  string         `json:"namespace"`
		Variant    string         `json:"variant"`
		PipURL     string         `json:"pip_url"`
		Executable string         `json:"executable"`
		Aliases    []string       `json:"aliases"`
		Settings   []rawSetting   `json:"settings"`
		Config     map[string]any `json:"config"`
		Commands   map[string]any `json:"commands"`
		ConfigFile *rawConfigFile `json:"config_file"`
	}

	rawSetting struct {
		Name        string   `json:"name"`
		Kind        string   `json:"kind"`
		Value       any      `json:"value"`
		Env         string   `json:"env"`
		Aliases     []string `json:"aliases"`
		Required    bool     `json:"required"`
		Description string   `json:"description"`
	}

	rawConfigFile struct {
		Env    string `json:"env"`
		Format string `json:"format"`
		Name   string `json:"name"`
	}

	rawEnvironment struct {
		Name   string         `json:"name"`
		Env    map[string]any `json:"env"`
		Config struct {
			Plugins map[string][]struct {
				Name   string         `json:"name"`
				Config map[string]any `json:"config"`
			} `json:"plugins"`
		} `json:"config"`
	}
)

func (r rawPlugin) toDefinition(kind plugin.Kind) (*plugin.Definition, error) {
	def := &plugin.Definition{
		Name:       r.Name,
		Namespace:  r.Namespace,
		Kind:       kind,
		Variant:    r.Variant,
		PipURL:     r.PipURL,
		Executable: r.Executable,
		Aliases:    r.Aliases,
	}
	if def.Namespace == "" {
		def.Namespace = defaultNamespace(r.Name)
	}

	for _, s := range r.Settings {
		def.Settings = append(def.Settings, plugin.Setting{
			Name:        s.Name,
			Kind:        plugin.SettingKind(s.Kind),
			Value:       s.Value,
			Env:         s.Env,
			Aliases:     s.Aliases,
			Required:    s.Required,
			Description: s.Description,
		})
	}

	if len(r.Commands) > 0 {
		def.Commands = make(map[string]plugin.Command, len(r.Commands))
	}
	for name, raw := range r.Commands {
		cmd, err := decodeCommand(name, raw)
		if err != nil {
			return nil, err
		}
		def.Commands[name] = cmd
	}

	if cf := r.ConfigFile; cf != nil {
		def.ConfigFile = &plugin.ConfigFile{Env: cf.Env, Format: plugin.ConfigFormat(cf.Format), Name: cf.Name}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// decodeCommand accepts the short form ("cmd: args") and the long form
// ("cmd: {args: ..., description: ...}").
func decodeCommand(name string, raw any) (plugin.Command, error) {
	switch v := raw.(type) {
	case string:
		return plugin.NewCommand(name, v, "")
	case map[string]any:
		args, err := cast.ToStringE(v["args"])
		if err != nil {
			return plugin.Command{}, fmt.Errorf("command %q: args: %w", name, err)
		}
		cmd, err := plugin.NewCommand(name, args, cast.ToString(v["description"]))
		if err != nil {
			return plugin.Command{}, err
		}
		cmd.Executable = cast.ToString(v["executable"])
		if env, ok := v["env"].(map[string]any); ok {
			cmd.Env = stringMap(env)
		}
		return cmd, nil
	default:
		return plugin.Command{}, fmt.Errorf("command %q: unsupported value of type %T", name, raw)
	}
}

// stringMap renders scalar env values (PORT: 5432) as strings.
func stringMap(in map[string]any) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = cast.ToString(v)
	}
	return out
}

// defaultNamespace derives tap_mock from tap-mock.
func defaultNamespace(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c == '-' || c == '.' {
			b[i] = '_'
		}
	}
	return string(b)
}

// stripNulls removes YAML nulls ("config:" with nothing under it) so that
// optional fields validate as absent rather than as null.
func stripNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := maps.Clone(t)
		for k, child := range out {
			if child == nil {
				delete(out, k)
				continue
			}
			out[k] = stripNulls(child)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if child != nil {
				out = append(out, stripNulls(child))
			}
		}
		return out
	default:
		return v
	}
}
