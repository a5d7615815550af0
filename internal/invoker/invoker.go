// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"

	"meltano-cli/internal/settings"
	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

// Invoker states.
const (
	StateUninitialized State = iota
	StatePrepared
	StateTornDown
)

// ErrNotPrepared is the sentinel error wrapped by StateError.
var ErrNotPrepared = errors.New("plugin invoker is not prepared")

type (
	// State is the lifecycle state of an Invoker.
	State int

	// Project is what the invoker needs from the project.
	Project interface {
		Root() string
		DotenvPath() string
		Env() map[string]string
		EnvironmentName() string
		EnvironmentEnv() map[string]string
		PluginConfig(kind plugin.Kind, name string) map[string]any
		EnvironmentPluginConfig(kind plugin.Kind, name string) map[string]any
		LogLevel() string
	}

	// Invoker owns the lifecycle of one plugin execution. It is not safe
	// for concurrent use; run separate invokers instead.
	Invoker struct {
		def      *plugin.Definition
		project  Project
		resolver *venv.Resolver
		composer *Composer
		launcher Launcher
		logger   *slog.Logger

		state       State
		runtime     *venv.VirtualEnv
		executable  string
		dotenv      map[string]string
		layers      []settings.Layer
		resolved    *settings.Resolved
		config      *materializedConfig
		configFiles map[string]string
	}

	// Option configures an Invoker.
	Option func(*Invoker)

	// InvokeOptions selects the command and per-invocation overrides.
	InvokeOptions struct {
		// Command names a declared command; empty runs the bare executable.
		Command string
		// Env overrides every other source, for this call only.
		Env map[string]string

		Stdin io.Reader
		// A nil Stdout or Stderr is captured into the Result.
		Stdout io.Writer
		Stderr io.Writer
	}

	// StateError is returned when an operation needs a prepared invoker.
	StateError struct {
		Op    string
		State State
	}
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePrepared:
		return "prepared"
	case StateTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: plugin invoker is %s, not prepared", e.Op, e.State)
}

// Unwrap returns ErrNotPrepared so callers can use errors.Is for programmatic detection.
func (e *StateError) Unwrap() error { return ErrNotPrepared }

// WithResolver sets the runtime resolver. Defaults to one rooted at the
// project for the current platform.
func WithResolver(r *venv.Resolver) Option {
	return func(i *Invoker) { i.resolver = r }
}

// WithEnviron sets the ambient environment source. Defaults to os.Environ.
func WithEnviron(environ func() []string) Option {
	return func(i *Invoker) { i.composer = &Composer{Environ: environ} }
}

// WithLauncher sets the process launcher. Defaults to an ExecLauncher.
func WithLauncher(l Launcher) Option {
	return func(i *Invoker) { i.launcher = l }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) { i.logger = l }
}

// New returns an uninitialized invoker for def inside proj.
func New(def *plugin.Definition, proj Project, opts ...Option) *Invoker {
	i := &Invoker{def: def, project: proj}
	for _, opt := range opts {
		opt(i)
	}
	if i.resolver == nil {
		i.resolver = venv.NewResolver(proj.Root())
	}
	if i.composer == nil {
		i.composer = &Composer{}
	}
	if i.launcher == nil {
		i.launcher = NewExecLauncher()
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	i.logger = i.logger.With("plugin", def.Name, "kind", def.Kind.String())
	return i
}

// Plugin returns the definition the invoker runs.
func (i *Invoker) Plugin() *plugin.Definition { return i.def }

// State returns the current lifecycle state.
func (i *Invoker) State() State { return i.state }

// Prepare resolves the runtime and settings, composes the environment and
// materializes the config file. Calling it on a prepared invoker releases
// the previous preparation first. Definitions are never mutated; to run a
// variant of a plugin, build a new Invoker from def.With(...).
func (i *Invoker) Prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if i.state == StatePrepared {
		if err := i.Cleanup(); err != nil {
			return err
		}
	}

	if err := i.prepare(); err != nil {
		// Nothing half-acquired survives a failed preparation.
		_ = i.release()
		return err
	}
	i.state = StatePrepared
	i.logger.Debug("prepared plugin invoker", "executable", i.executable, "managed", i.runtime != nil)
	return nil
}

func (i *Invoker) prepare() error {
	i.runtime = nil
	if i.def.Managed() {
		rt, err := i.resolver.Resolve(i.def.RuntimeNamespace(), i.def.Name)
		if err != nil {
			return err
		}
		i.runtime = rt
	}
	i.executable = i.resolveExecutable(i.def.ExecutableName())

	dotenv, err := settings.LoadDotenv(i.project.DotenvPath())
	if err != nil {
		return err
	}
	i.dotenv = dotenv

	i.layers = []settings.Layer{
		settings.DefaultLayer{},
		settings.NewMapLayer(settings.SourceProject, i.project.PluginConfig(i.def.Kind, i.def.Name)),
		settings.NewMapLayer(settings.SourceEnvironment, i.project.EnvironmentPluginConfig(i.def.Kind, i.def.Name)),
		settings.NewEnvLayer(settings.SourceDotenv, dotenv),
		settings.NewEnvLayer(settings.SourceEnv, i.composer.Ambient()),
	}
	resolved, err := settings.NewStack(i.def, i.layers...).Resolve(settings.ResolveOptions{})
	if err != nil {
		return err
	}
	i.resolved = resolved

	if cf := i.def.ConfigFile; cf != nil {
		cfg, err := writeConfigFile(i.project.Root(), i.def.Name, cf, resolved.AsMap(true))
		if err != nil {
			return err
		}
		i.config = cfg
		i.configFiles = map[string]string{cf.Env: cfg.path}
	}
	return nil
}

// Cleanup releases what Prepare acquired. Only the first call after a
// preparation does anything; later calls return nil.
func (i *Invoker) Cleanup() error {
	if i.state != StatePrepared {
		return nil
	}
	i.state = StateTornDown
	err := i.release()
	i.logger.Debug("cleaned up plugin invoker")
	return err
}

func (i *Invoker) release() error {
	var err error
	if i.config != nil {
		err = i.config.remove()
		i.config = nil
	}
	i.configFiles = nil
	return err
}

// Prepared runs fn with the invoker prepared and cleans up afterwards, on
// every path out of fn including a panic.
func (i *Invoker) Prepared(ctx context.Context, fn func(*Invoker) error) (err error) {
	if err := i.Prepare(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := i.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(i)
}

// Settings returns the resolved declared settings. It is nil until prepared.
func (i *Invoker) Settings() *settings.Resolved { return i.resolved }

// ConfigFilePath returns the config file written by Prepare, or "" when the
// plugin declares none.
func (i *Invoker) ConfigFilePath() string {
	if i.config == nil {
		return ""
	}
	return i.config.path
}

// ResolveSettings resolves again with opts, for introspection such as
// listing extras.
func (i *Invoker) ResolveSettings(opts settings.ResolveOptions) (*settings.Resolved, error) {
	if i.state != StatePrepared {
		return nil, &StateError{Op: "resolve settings", State: i.state}
	}
	return settings.NewStack(i.def, i.layers...).Resolve(opts)
}

// Env returns the composed environment without launching anything.
func (i *Invoker) Env(overrides map[string]string) (map[string]string, error) {
	if i.state != StatePrepared {
		return nil, &StateError{Op: "env", State: i.state}
	}
	return i.environment(nil, overrides)
}

// ExecArgs returns [executable, expanded command args..., extra...].
func (i *Invoker) ExecArgs(opts InvokeOptions, extra ...string) ([]string, error) {
	if i.state != StatePrepared {
		return nil, &StateError{Op: "exec args", State: i.state}
	}
	argv, _, err := i.plan(opts, extra)
	return argv, err
}

// Invoke launches the plugin once. The returned process's Wait reports the
// child's exit code; a non-zero code is not an error here.
func (i *Invoker) Invoke(ctx context.Context, opts InvokeOptions, args ...string) (Process, error) {
	if i.state != StatePrepared {
		return nil, &StateError{Op: "invoke", State: i.state}
	}
	argv, env, err := i.plan(opts, args)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("invoking plugin", "argv", argv, "command", opts.Command)
	return i.launcher.Launch(ctx, LaunchSpec{
		Argv:   argv,
		Env:    mapToEnviron(env),
		Dir:    i.project.Root(),
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
}

// plan computes argv and env for one call. Every error it can return is
// raised before anything is launched.
func (i *Invoker) plan(opts InvokeOptions, extra []string) ([]string, map[string]string, error) {
	var cmd *plugin.Command
	if opts.Command != "" {
		c, err := i.def.Registry().Lookup(opts.Command)
		if err != nil {
			return nil, nil, err
		}
		cmd = &c
	}

	env, err := i.environment(cmd, opts.Env)
	if err != nil {
		return nil, nil, err
	}

	argv := []string{i.executable}
	if cmd != nil {
		if cmd.Executable != "" {
			argv[0] = i.resolveExecutable(cmd.Executable)
		}
		expanded, err := cmd.ExpandArgs(env)
		if err != nil {
			return nil, nil, err
		}
		argv = append(argv, expanded...)
	}
	argv = append(argv, extra...)
	return argv, env, nil
}

func (i *Invoker) environment(cmd *plugin.Command, overrides map[string]string) (map[string]string, error) {
	resolved := i.resolved
	if len(overrides) > 0 {
		layers := append(i.layers[:len(i.layers):len(i.layers)], settings.NewEnvLayer(settings.SourceOverride, overrides))
		r, err := settings.NewStack(i.def, layers...).Resolve(settings.ResolveOptions{})
		if err != nil {
			return nil, err
		}
		resolved = r
	}

	settingsEnv := resolved.Env()
	// An override naming a setting alias already reached every alias of
	// that setting, normalized, through the re-resolution above.
	overrides = maps.Clone(overrides)
	for name := range settingsEnv {
		delete(overrides, name)
	}
	maps.Copy(settingsEnv, i.configFiles)

	in := ComposeInput{
		Plugin:     i.def,
		Project:    i.project,
		Runtime:    i.runtime,
		Executable: i.executable,
		Dotenv:     i.dotenv,
		Settings:   settingsEnv,
		Overrides:  overrides,
	}
	if cmd != nil {
		in.CommandEnv = cmd.Env
	}
	return i.composer.Compose(in), nil
}

// resolveExecutable maps a declared executable to argv[0]. Bare names of
// managed plugins live in the runtime; absolute paths are kept; relative
// paths are anchored at the project root; other bare names are left to the
// OS path lookup.
func (i *Invoker) resolveExecutable(name string) string {
	bare := !strings.ContainsAny(name, `/\`)
	switch {
	case bare && i.runtime != nil:
		return i.runtime.ExecPath(name)
	case filepath.IsAbs(name):
		return name
	case !bare:
		return filepath.Join(i.project.Root(), name)
	default:
		return name
	}
}
