// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

var configJSON = sonic.Config{SortMapKeys: true}.Froze()

// runDir is where per-invocation files live, relative to the project root.
var runDir = filepath.Join(venv.StateDir, "run")

// materializedConfig is a config file written for one preparation.
type materializedConfig struct {
	dir  string
	path string
}

// writeConfigFile serializes config in the requested format to a fresh
// directory under <root>/.meltano/run/<plugin>/<uuid>/.
func writeConfigFile(root, pluginName string, cf *plugin.ConfigFile, config map[string]any) (*materializedConfig, error) {
	data, err := encodeConfig(cf.Format, config)
	if err != nil {
		return nil, fmt.Errorf("encode %s config for %s: %w", cf.Format, pluginName, err)
	}

	dir := filepath.Join(root, runDir, pluginName, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	path := filepath.Join(dir, cf.FileName())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write config file: %w", err)
	}
	return &materializedConfig{dir: dir, path: path}, nil
}

func (m *materializedConfig) remove() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("remove %s: %w", m.dir, err)
	}
	return nil
}

func encodeConfig(format plugin.ConfigFormat, config map[string]any) ([]byte, error) {
	switch format {
	case plugin.ConfigFormatJSON, "":
		return configJSON.MarshalIndent(config, "", "  ")
	case plugin.ConfigFormatTOML:
		return toml.Marshal(config)
	case plugin.ConfigFormatYAML:
		return yaml.Marshal(config)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}
