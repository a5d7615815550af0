// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"meltano-cli/pkg/plugin"
)

func tapMock() *plugin.Definition {
	return &plugin.Definition{
		Name:   "tap-mock",
		Kind:   plugin.KindExtractors,
		PipURL: "tap-mock",
		Settings: []plugin.Setting{
			{Name: "test", Value: "mock"},
			{Name: "_select", Kind: plugin.SettingArray, Value: []any{"*.*"}},
			{Name: "port", Kind: plugin.SettingInteger},
			{Name: "auth.token", Kind: plugin.SettingPassword, Env: "MOCK_TOKEN"},
		},
	}
}

func sixLayers(top int) []Layer {
	all := []Layer{
		DefaultLayer{},
		NewMapLayer(SourceProject, map[string]any{"test": "project"}),
		NewMapLayer(SourceEnvironment, map[string]any{"test": "environment"}),
		NewEnvLayer(SourceDotenv, map[string]string{"TAP_MOCK_TEST": "dotenv"}),
		NewEnvLayer(SourceEnv, map[string]string{"MELTANO_EXTRACT_TEST": "env"}),
		NewEnvLayer(SourceOverride, map[string]string{"TAP_MOCK_TEST": "override"}),
	}
	return all[:top]
}

func TestStackResolve_Precedence(t *testing.T) {
	t.Parallel()

	want := []struct {
		value  string
		source Source
	}{
		{"mock", SourceDefault},
		{"project", SourceProject},
		{"environment", SourceEnvironment},
		{"dotenv", SourceDotenv},
		{"env", SourceEnv},
		{"override", SourceOverride},
	}

	for i, w := range want {
		t.Run(string(w.source), func(t *testing.T) {
			t.Parallel()

			resolved, err := NewStack(tapMock(), sixLayers(i+1)...).Resolve(ResolveOptions{})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			rs, _ := resolved.Get("test")
			if rs.Value != w.value || rs.Source != w.source {
				t.Errorf("test = %v from %s, want %q from %s", rs.Value, rs.Source, w.value, w.source)
			}
			env := resolved.Env()
			if env["TAP_MOCK_TEST"] != w.value || env["MELTANO_EXTRACT_TEST"] != w.value {
				t.Errorf("aliases = %q / %q, want %q", env["TAP_MOCK_TEST"], env["MELTANO_EXTRACT_TEST"], w.value)
			}
		})
	}
}

func TestStackResolve_DotenvBeatsEnvironmentBlock(t *testing.T) {
	t.Parallel()

	resolved, err := NewStack(tapMock(),
		DefaultLayer{},
		NewMapLayer(SourceEnvironment, map[string]any{"port": 5432}),
		NewEnvLayer(SourceDotenv, map[string]string{"TAP_MOCK_PORT": "6543"}),
	).Resolve(ResolveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	rs, _ := resolved.Get("port")
	if rs.Source != SourceDotenv || rs.Value != int64(6543) {
		t.Errorf("port = %#v from %s, want 6543 from dotenv", rs.Value, rs.Source)
	}
}

func TestStackResolve_StructuredDefaults(t *testing.T) {
	t.Parallel()

	resolved, err := NewStack(tapMock(), DefaultLayer{}).Resolve(ResolveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	env := resolved.Env()
	if env["MELTANO_EXTRACT__SELECT"] != `["*.*"]` || env["TAP_MOCK__SELECT"] != `["*.*"]` {
		t.Errorf("_select aliases = %q / %q", env["MELTANO_EXTRACT__SELECT"], env["TAP_MOCK__SELECT"])
	}
	if _, ok := env["TAP_MOCK_PORT"]; ok {
		t.Error("a setting without value or default must not be exported")
	}
	rs, _ := resolved.Get("port")
	if rs.Value != nil || rs.Source != "" {
		t.Errorf("port should be absent, got %#v from %q", rs.Value, rs.Source)
	}
}

func TestStackResolve_CustomEnvAlias(t *testing.T) {
	t.Parallel()

	resolved, err := NewStack(tapMock(),
		DefaultLayer{},
		NewEnvLayer(SourceEnv, map[string]string{"MOCK_TOKEN": "s3cret"}),
	).Resolve(ResolveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	env := resolved.Env()
	for _, name := range []string{"TAP_MOCK_AUTH_TOKEN", "MELTANO_EXTRACT_AUTH_TOKEN", "MOCK_TOKEN"} {
		if env[name] != "s3cret" {
			t.Errorf("%s = %q, want s3cret", name, env[name])
		}
	}
}

func TestStackResolve_Extras(t *testing.T) {
	t.Parallel()

	layers := []Layer{
		DefaultLayer{},
		NewMapLayer(SourceProject, map[string]any{
			"test":   "project",
			"custom": map[string]any{"flag": true},
			"auth":   map[string]any{"token": "t"},
		}),
	}

	plain, err := NewStack(tapMock(), layers...).Resolve(ResolveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := plain.Get("custom.flag"); ok {
		t.Error("extras must be hidden unless requested")
	}
	if _, ok := plain.Env()["TAP_MOCK_CUSTOM_FLAG"]; ok {
		t.Error("extras must not reach the environment unless requested")
	}
	if rs, _ := plain.Get("auth.token"); rs.Value != "t" {
		t.Errorf("nested config should serve auth.token, got %#v", rs.Value)
	}

	withExtras, err := NewStack(tapMock(), layers...).Resolve(ResolveOptions{Extras: true})
	if err != nil {
		t.Fatal(err)
	}
	rs, ok := withExtras.Get("custom.flag")
	if !ok || !rs.Extra || rs.Value != true {
		t.Fatalf("custom.flag = %+v, %v", rs, ok)
	}
	if withExtras.Env()["TAP_MOCK_CUSTOM_FLAG"] != "true" {
		t.Errorf("extra alias = %q", withExtras.Env()["TAP_MOCK_CUSTOM_FLAG"])
	}
	names := make([]string, 0)
	for _, s := range withExtras.Settings() {
		if s.Extra {
			names = append(names, s.Setting.Name)
		}
	}
	if !slices.Equal(names, []string{"custom.flag"}) {
		t.Errorf("extras = %v, want only custom.flag", names)
	}
}

func TestStackResolve_Errors(t *testing.T) {
	t.Parallel()

	t.Run("required without value", func(t *testing.T) {
		t.Parallel()

		def := tapMock().With(func(d *plugin.Definition) {
			d.Settings = append(d.Settings, plugin.Setting{Name: "api_key", Required: true})
		})
		_, err := NewStack(def, DefaultLayer{}).Resolve(ResolveOptions{})
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Setting != "api_key" {
			t.Fatalf("error = %v, want *ConfigError for api_key", err)
		}
	})

	t.Run("untyped value in typed setting", func(t *testing.T) {
		t.Parallel()

		_, err := NewStack(tapMock(),
			DefaultLayer{},
			NewEnvLayer(SourceEnv, map[string]string{"TAP_MOCK_PORT": "not-a-port"}),
		).Resolve(ResolveOptions{})
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Source != string(SourceEnv) {
			t.Fatalf("error = %v, want *ConfigError from env", err)
		}
		if !errors.Is(err, ErrConfig) {
			t.Error("error does not wrap ErrConfig")
		}
	})
}

func TestResolvedAsMap(t *testing.T) {
	t.Parallel()

	resolved, err := NewStack(tapMock(),
		DefaultLayer{},
		NewMapLayer(SourceProject, map[string]any{"port": "8080", "auth": map[string]any{"token": "t"}}),
	).Resolve(ResolveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	flat := resolved.AsMap(false)
	if flat["port"] != int64(8080) || flat["auth.token"] != "t" {
		t.Errorf("AsMap(false) = %v", flat)
	}

	want := map[string]any{
		"test":    "mock",
		"_select": []any{"*.*"},
		"port":    int64(8080),
		"auth":    map[string]any{"token": "t"},
	}
	if got := resolved.AsMap(true); !reflect.DeepEqual(got, want) {
		t.Errorf("AsMap(true) = %#v, want %#v", got, want)
	}
}

// Whatever layers supply a value, every alias of a setting carries the same
// text and that text parses back to the resolved value.
func TestStackResolve_AliasesAgree(t *testing.T) {
	t.Parallel()

	def := tapMock()
	rapid.Check(t, func(t *rapid.T) {
		var layers []Layer
		layers = append(layers, DefaultLayer{})
		if rapid.Bool().Draw(t, "project") {
			layers = append(layers, NewMapLayer(SourceProject, map[string]any{
				"port": rapid.IntRange(1, 65535).Draw(t, "project_port"),
			}))
		}
		for _, src := range []Source{SourceDotenv, SourceEnv, SourceOverride} {
			if !rapid.Bool().Draw(t, string(src)) {
				continue
			}
			alias := rapid.SampledFrom(def.SettingEnv(def.Settings[2])).Draw(t, string(src)+"_alias")
			port := rapid.IntRange(1, 65535).Draw(t, string(src)+"_port")
			layers = append(layers, NewEnvLayer(src, map[string]string{alias: itoa(port)}))
		}

		resolved, err := NewStack(def, layers...).Resolve(ResolveOptions{})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		rs, _ := resolved.Get("port")
		env := resolved.Env()
		for _, name := range rs.Env {
			if rs.Source == "" {
				if _, ok := env[name]; ok {
					t.Fatalf("absent setting exported as %s", name)
				}
				continue
			}
			if env[name] != rs.Text {
				t.Fatalf("%s = %q, want %q", name, env[name], rs.Text)
			}
		}
		if rs.Source != "" {
			back, err := ParseValue(plugin.SettingInteger, rs.Text)
			if err != nil || back != rs.Value {
				t.Fatalf("ParseValue(%q) = %v, %v; want %v", rs.Text, back, err, rs.Value)
			}
		}
	})
}
