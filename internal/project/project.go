// SPDX-License-Identifier: MPL-2.0

package project

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"meltano-cli/pkg/cueutil"
	"meltano-cli/pkg/plugin"
)

const (
	// FileName is the project file name.
	FileName = "meltano.yml"
	// DotenvName is the project dotenv file name.
	DotenvName = ".env"
	// DefaultLogLevel is exported as MELTANO_CLI_LOG_LEVEL unless overridden.
	DefaultLogLevel = "info"

	// EnvProjectRoot points at the project root, overriding discovery.
	EnvProjectRoot = "MELTANO_PROJECT_ROOT"
	// EnvEnvironment selects the active environment block.
	EnvEnvironment = "MELTANO_ENVIRONMENT"
)

//go:embed project_schema.cue
var schemaBytes []byte

var (
	// ErrProjectNotFound is returned by Find when no project file exists
	// in the start directory or any parent.
	ErrProjectNotFound = errors.New("no meltano.yml found in this directory or any parent")

	// ErrEnvironmentNotFound is the sentinel error wrapped by EnvironmentNotFoundError.
	ErrEnvironmentNotFound = errors.New("environment not found")
)

type (
	// Project is a loaded meltano.yml.
	Project struct {
		root               string
		defaultEnvironment string
		env                map[string]string
		plugins            map[plugin.Kind][]entry
		environments       map[string]*Environment
		active             *Environment
		logLevel           string
	}

	entry struct {
		def    *plugin.Definition
		config map[string]any
	}

	// Environment is a named block of variable and plugin config overrides.
	Environment struct {
		Name   string
		Env    map[string]string
		config map[plugin.Kind]map[string]map[string]any
	}

	// Option configures Load.
	Option func(*loadOptions)

	loadOptions struct {
		environment string
		logLevel    string
	}

	// EnvironmentNotFoundError is returned when the selected environment is
	// not declared.
	EnvironmentNotFoundError struct {
		Name      string
		Available []string
	}
)

// Error implements the error interface.
func (e *EnvironmentNotFoundError) Error() string {
	return fmt.Sprintf("environment %q not found (available: %v)", e.Name, e.Available)
}

// Unwrap returns ErrEnvironmentNotFound so callers can use errors.Is for programmatic detection.
func (e *EnvironmentNotFoundError) Unwrap() error { return ErrEnvironmentNotFound }

// WithEnvironment activates the named environment block. It beats the
// project's default_environment.
func WithEnvironment(name string) Option {
	return func(o *loadOptions) { o.environment = name }
}

// WithLogLevel sets the level exported to plugins.
func WithLogLevel(level string) Option {
	return func(o *loadOptions) { o.logLevel = level }
}

// Find returns the project root: override when non-empty (the value of
// MELTANO_PROJECT_ROOT), otherwise the closest directory from start upwards
// containing meltano.yml.
func Find(start, override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, FileName)); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrProjectNotFound
		}
		dir = parent
	}
}

// Load reads and validates <root>/meltano.yml.
func Load(root string, opts ...Option) (*Project, error) {
	o := loadOptions{logLevel: DefaultLogLevel}
	for _, opt := range opts {
		opt(&o)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, FileName); err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := cueutil.DecodeValue[rawProject](schemaBytes, stripNulls(doc), "#Project", cueutil.WithFilename(FileName))
	if err != nil {
		return nil, err
	}

	p, err := build(absRoot, result.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	p.logLevel = o.logLevel

	name := o.environment
	if name == "" {
		name = p.defaultEnvironment
	}
	if err := p.activate(name); err != nil {
		return nil, err
	}

	slog.Debug("loaded project", "root", absRoot, "environment", name)
	return p, nil
}

func build(root string, raw *rawProject) (*Project, error) {
	p := &Project{
		root:               root,
		defaultEnvironment: raw.DefaultEnvironment,
		env:                stringMap(raw.Env),
		plugins:            make(map[plugin.Kind][]entry),
		environments:       make(map[string]*Environment, len(raw.Environments)),
	}

	for kindName, list := range raw.Plugins {
		kind := plugin.Kind(kindName)
		for _, rp := range list {
			def, err := rp.toDefinition(kind)
			if err != nil {
				return nil, err
			}
			p.plugins[kind] = append(p.plugins[kind], entry{def: def, config: rp.Config})
		}
	}

	for _, re := range raw.Environments {
		env := &Environment{
			Name:   re.Name,
			Env:    stringMap(re.Env),
			config: make(map[plugin.Kind]map[string]map[string]any),
		}
		for kindName, list := range re.Config.Plugins {
			kind, err := plugin.ParseKind(kindName)
			if err != nil {
				return nil, fmt.Errorf("environment %q: %w", re.Name, err)
			}
			byName := make(map[string]map[string]any, len(list))
			for _, pc := range list {
				byName[pc.Name] = pc.Config
			}
			env.config[kind] = byName
		}
		p.environments[re.Name] = env
	}
	return p, nil
}

func (p *Project) activate(name string) error {
	if name == "" {
		p.active = nil
		return nil
	}
	env, ok := p.environments[name]
	if !ok {
		return &EnvironmentNotFoundError{Name: name, Available: p.EnvironmentNames()}
	}
	p.active = env
	return nil
}

// Root returns the absolute project root.
func (p *Project) Root() string { return p.root }

// DotenvPath returns the path of the project dotenv file.
func (p *Project) DotenvPath() string { return filepath.Join(p.root, DotenvName) }

// Env returns the project-level env block.
func (p *Project) Env() map[string]string { return p.env }

// LogLevel returns the level exported to plugins.
func (p *Project) LogLevel() string { return p.logLevel }

// EnvironmentName returns the active environment, or "" when none is active.
func (p *Project) EnvironmentName() string {
	if p.active == nil {
		return ""
	}
	return p.active.Name
}

// EnvironmentEnv returns the env block of the active environment.
func (p *Project) EnvironmentEnv() map[string]string {
	if p.active == nil {
		return nil
	}
	return p.active.Env
}

// EnvironmentNames returns the declared environment names, sorted.
func (p *Project) EnvironmentNames() []string {
	names := make([]string, 0, len(p.environments))
	for name := range p.environments {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PluginConfig returns the config block of a plugin in the project file.
func (p *Project) PluginConfig(kind plugin.Kind, name string) map[string]any {
	for _, e := range p.plugins[kind] {
		if e.def.Name == name {
			return e.config
		}
	}
	return nil
}

// EnvironmentPluginConfig returns the config override of a plugin in the
// active environment.
func (p *Project) EnvironmentPluginConfig(kind plugin.Kind, name string) map[string]any {
	if p.active == nil {
		return nil
	}
	return p.active.config[kind][name]
}
