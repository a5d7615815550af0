// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"meltano-cli/internal/issue"
	"meltano-cli/pkg/cueutil"
	"meltano-cli/pkg/platform"
)

const (
	// AppName names the configuration directory.
	AppName = "meltano"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes per-key environment overrides.
	EnvPrefix = "MELTANO_"
)

// keys lists every configuration key that may be overridden from the environment.
var keys = []string{
	"cli.log_level",
	"default_environment",
	"install.command",
	"ui.color_scheme",
	"ui.verbose",
}

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the configuration directory using platform conventions:
// %APPDATA% on Windows, ~/Library/Application Support on macOS and
// $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case platform.Windows:
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// EnvName returns the override variable for a configuration key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// loadWithOptions loads defaults, then the config file, then environment
// overrides, and returns the path of the file that was read (empty when none).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("cli.log_level", defaults.CLI.LogLevel)
	v.SetDefault("default_environment", defaults.DefaultEnvironment)
	v.SetDefault("install.command", defaults.Install.Command)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Run 'meltano cli-config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	applyEnv(v, opts.Environ)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check MELTANO_-prefixed environment variables for typos").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

// locate returns the config file to read, or "" when only defaults apply.
// An explicit file path must exist.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, nil
	}
	return "", nil
}

func applyEnv(v *viper.Viper, environ func() []string) {
	if environ == nil {
		environ = os.Environ
	}
	env := make(map[string]string)
	for _, entry := range environ() {
		if k, val, ok := strings.Cut(entry, "="); ok {
			env[k] = val
		}
	}
	for _, key := range keys {
		if val, ok := env[EnvName(key)]; ok {
			v.Set(key, val)
		}
	}
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
//
// Fields are optional, so validation is not concrete and the result is
// decoded into a map for Viper rather than through cueutil.ParseAndDecode.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file unless one exists, and
// returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Meltano CLI configuration\n\n")
	fmt.Fprintf(&sb, "cli: {\n\tlog_level: %q\n}\n", cfg.CLI.LogLevel)

	if cfg.DefaultEnvironment != "" {
		fmt.Fprintf(&sb, "\ndefault_environment: %q\n", cfg.DefaultEnvironment)
	}
	if cfg.Install.Command != "" {
		fmt.Fprintf(&sb, "\ninstall: {\n\tcommand: %q\n}\n", cfg.Install.Command)
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
