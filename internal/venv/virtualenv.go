// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"os"
	"path/filepath"
	"strings"

	"meltano-cli/pkg/platform"
)

const (
	// EnvVirtualEnv marks the active runtime root.
	EnvVirtualEnv = "VIRTUAL_ENV"
	// EnvLibDir marks the isolated library directory of the active runtime.
	EnvLibDir = "MELTANO_VENV_LIB"

	envPath       = "PATH"
	envPythonPath = "PYTHONPATH"
	envPythonHome = "PYTHONHOME"
)

// IsolationVars are the variables that tie a process to a specific runtime.
// They are never inherited from the ambient environment; a managed runtime
// sets the ones it needs itself.
var IsolationVars = []string{EnvVirtualEnv, EnvLibDir, envPythonPath, envPythonHome}

// VirtualEnv is a located runtime.
type VirtualEnv struct {
	root     string
	spec     Spec
	platform platform.Name
}

// Root returns the runtime root directory.
func (v *VirtualEnv) Root() string { return v.root }

// BinDir returns the directory holding the runtime's executables.
func (v *VirtualEnv) BinDir() string { return filepath.Join(v.root, v.spec.BinDir) }

// LibDir returns the runtime's isolated library directory.
func (v *VirtualEnv) LibDir() string { return filepath.Join(v.root, v.spec.LibDir) }

// Interpreter returns the first candidate interpreter that exists, or the
// preferred candidate when none does.
func (v *VirtualEnv) Interpreter() string {
	for _, name := range v.spec.Interpreters {
		p := filepath.Join(v.BinDir(), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(v.BinDir(), v.spec.Interpreters[0])
}

// ExecPath returns the path of executable exe inside the runtime.
func (v *VirtualEnv) ExecPath(exe string) string {
	if v.platform.IsWindows() && filepath.Ext(exe) == "" {
		exe += ".exe"
	}
	return filepath.Join(v.BinDir(), exe)
}

// ActivationEnv returns the variables that activate the runtime, with the
// bin directory prepended to path.
func (v *VirtualEnv) ActivationEnv(path string) map[string]string {
	newPath := v.BinDir()
	if path != "" {
		newPath += v.listSeparator() + path
	}
	return map[string]string{
		EnvVirtualEnv: v.root,
		EnvLibDir:     v.LibDir(),
		envPath:       newPath,
	}
}

func (v *VirtualEnv) listSeparator() string {
	if v.platform.IsWindows() {
		return ";"
	}
	return ":"
}

// StripIsolation removes IsolationVars from env in place.
func StripIsolation(env map[string]string) {
	for _, k := range IsolationVars {
		delete(env, k)
	}
	// Windows environment keys are case-insensitive.
	for k := range env {
		for _, iso := range IsolationVars {
			if strings.EqualFold(k, iso) {
				delete(env, k)
			}
		}
	}
}
