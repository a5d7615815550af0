// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meltano-cli/internal/issue"
)

func noEnv() []string { return nil }

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), Environ: noEnv})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
cli: log_level: "debug"
default_environment: "dev"
install: command: "true"
ui: color_scheme: "dark"
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: dir,
		Environ: func() []string {
			return []string{"MELTANO_UI_VERBOSE=true", "MELTANO_CLI_LOG_LEVEL=warning", "UNRELATED=1"}
		},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasSuffix(path, "config.cue") {
		t.Errorf("path = %q", path)
	}

	want := Config{
		CLI:                CLIConfig{LogLevel: LogLevelWarning},
		DefaultEnvironment: "dev",
		Install:            InstallConfig{Command: "true"},
		UI:                 UIConfig{ColorScheme: ColorSchemeDark, Verbose: true},
	}
	if *cfg != want {
		t.Errorf("cfg = %+v, want %+v", *cfg, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		environ []string
		sentinel error
	}{
		{name: "unknown field", content: `unknown: 1`},
		{name: "bad enum", content: `ui: color_scheme: "blue"`},
		{name: "bad syntax", content: `cli: {`},
		{name: "bad env override", environ: []string{"MELTANO_UI_COLOR_SCHEME=blue"}, sentinel: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.content != "" {
				writeConfig(t, dir, tt.content)
			}
			_, _, err := loadWithOptions(context.Background(), LoadOptions{
				ConfigDirPath: dir,
				Environ:       func() []string { return tt.environ },
			})
			if err == nil {
				t.Fatal("expected an error")
			}
			if issue.Explain(err) != issue.Get(issue.ConfigLoadFailedId) {
				t.Errorf("error not linked to config issue: %v", err)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	provider := NewProvider()
	_, err := provider.Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"), Environ: noEnv})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("missing explicit file: %v", err)
	}

	path := writeConfig(t, t.TempDir(), `ui: verbose: true`)
	cfg, err := provider.Load(context.Background(), LoadOptions{ConfigFilePath: path, Environ: noEnv})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UI.Verbose || cfg.CLI.LogLevel != LogLevelInfo {
		t.Errorf("cfg = %+v", cfg)
	}

	_, err = provider.Load(context.Background(), LoadOptions{ConfigDirPath: "  "})
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Errorf("blank dir: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		CLI:                CLIConfig{LogLevel: LogLevelError},
		DefaultEnvironment: "prod",
		Install:            InstallConfig{Command: `uv pip install "$MELTANO_PIP_URL"`},
		UI:                 UIConfig{ColorScheme: ColorSchemeLight, Verbose: true},
	}
	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir, Environ: noEnv})
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", *got, *cfg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig: %v", err)
	}
	if err := os.WriteFile(path, []byte(`ui: verbose: true`), 0o644); err != nil {
		t.Fatal(err)
	}
	// An existing file is left alone.
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `ui: verbose: true` {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestConfigDirOverride(t *testing.T) {
	SetConfigDirOverride("/tmp/meltano-test")
	t.Cleanup(Reset)

	dir, err := ConfigDir()
	if err != nil || dir != "/tmp/meltano-test" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
}

func TestEnvName(t *testing.T) {
	t.Parallel()
	if got := EnvName("ui.color_scheme"); got != "MELTANO_UI_COLOR_SCHEME" {
		t.Errorf("EnvName = %q", got)
	}
}
