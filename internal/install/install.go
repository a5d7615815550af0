// SPDX-License-Identifier: MPL-2.0

// Package install materializes plugin runtimes by running an install
// command through an embedded POSIX shell.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

// Variables exported to the install command.
const (
	EnvVenvRoot   = "MELTANO_VENV_ROOT"
	EnvVenvBin    = "MELTANO_VENV_BIN"
	EnvPipURL     = "MELTANO_PIP_URL"
	EnvPluginName = "MELTANO_PLUGIN_NAME"
)

// DefaultCommand creates a virtualenv and pip-installs the plugin into it.
const DefaultCommand = `python3 -m venv "$MELTANO_VENV_ROOT" && "$MELTANO_VENV_BIN/pip" install $MELTANO_PIP_URL`

var (
	// ErrNotManaged is returned for plugins without a pip URL.
	ErrNotManaged = errors.New("plugin has no managed runtime to install")
	// ErrInstall is the sentinel error wrapped by InstallError.
	ErrInstall = errors.New("plugin installation failed")
)

type (
	// Installer materializes the runtime of a managed plugin. Installing an
	// already installed plugin is allowed.
	Installer interface {
		Install(ctx context.Context, def *plugin.Definition) (*venv.VirtualEnv, error)
	}

	// ShellInstaller runs Command with the embedded shell interpreter.
	ShellInstaller struct {
		Resolver *venv.Resolver
		// ProjectRoot is the working directory of the command.
		ProjectRoot string
		// Command defaults to DefaultCommand.
		Command string
		Stdout  io.Writer
		Stderr  io.Writer
		// Environ defaults to os.Environ.
		Environ func() []string
	}

	// InstallError reports a failed install command.
	InstallError struct {
		Plugin   string
		ExitCode int
		Err      error
	}
)

// Error implements the error interface.
func (e *InstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("install %s: %v", e.Plugin, e.Err)
	}
	return fmt.Sprintf("install %s: command exited with status %d", e.Plugin, e.ExitCode)
}

// Unwrap returns ErrInstall so callers can use errors.Is for programmatic detection.
func (e *InstallError) Unwrap() error { return ErrInstall }

// Install implements Installer.
func (s *ShellInstaller) Install(ctx context.Context, def *plugin.Definition) (*venv.VirtualEnv, error) {
	if !def.Managed() {
		return nil, fmt.Errorf("%s: %w", def.Name, ErrNotManaged)
	}
	rt, err := s.Resolver.Root(def.RuntimeNamespace(), def.Name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(rt.Root()), 0o755); err != nil {
		return nil, &InstallError{Plugin: def.Name, ExitCode: 1, Err: err}
	}

	command := s.Command
	if command == "" {
		command = DefaultCommand
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "install")
	if err != nil {
		return nil, &InstallError{Plugin: def.Name, ExitCode: 1, Err: fmt.Errorf("parse install command: %w", err)}
	}

	env := s.environ()
	env[EnvVenvRoot] = rt.Root()
	env[EnvVenvBin] = rt.BinDir()
	env[EnvPipURL] = def.PipURL
	env[EnvPluginName] = def.Name

	runner, err := interp.New(
		interp.Dir(s.ProjectRoot),
		interp.Env(expand.ListEnviron(toEnviron(env)...)),
		interp.StdIO(nil, writerOr(s.Stdout), writerOr(s.Stderr)),
	)
	if err != nil {
		return nil, &InstallError{Plugin: def.Name, ExitCode: 1, Err: err}
	}

	slog.Info("installing plugin", "plugin", def.Name, "runtime", rt.Root())
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return nil, &InstallError{Plugin: def.Name, ExitCode: int(status)}
		}
		return nil, &InstallError{Plugin: def.Name, ExitCode: 1, Err: err}
	}

	return s.Resolver.Resolve(def.RuntimeNamespace(), def.Name)
}

func (s *ShellInstaller) environ() map[string]string {
	environ := s.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := make(map[string]string)
	for _, entry := range environ() {
		if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
			env[k] = v
		}
	}
	venv.StripIsolation(env)
	return env
}

func toEnviron(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
