// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"maps"
	"os"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

// Project identity variables.
const (
	EnvProjectRoot = "MELTANO_PROJECT_ROOT"
	EnvLogLevel    = "MELTANO_CLI_LOG_LEVEL"
	EnvEnvironment = "MELTANO_ENVIRONMENT"
)

type (
	// Composer builds the final process environment. Apart from reading the
	// ambient snapshot it is a pure function of its input.
	Composer struct {
		// Environ returns the ambient environment as "KEY=VALUE" strings.
		// When nil, os.Environ is used.
		Environ func() []string
	}

	// ComposeInput holds everything a composition depends on.
	ComposeInput struct {
		Plugin  *plugin.Definition
		Project Project
		// Runtime is nil for plugins with an explicit executable.
		Runtime *venv.VirtualEnv
		// Executable is the resolved argv[0].
		Executable string
		Dotenv     map[string]string
		// CommandEnv holds per-command defaults; settings and overrides
		// take precedence over them.
		CommandEnv map[string]string
		// Settings is the alias fan-out of the resolved settings.
		Settings  map[string]string
		Overrides map[string]string
	}
)

// Ambient returns a snapshot of the ambient environment without the
// variables that would tie a child to some other runtime.
func (c *Composer) Ambient() map[string]string {
	environ := c.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := environToMap(environ())
	venv.StripIsolation(env)
	return env
}

// Compose merges, later steps winning:
//
//  1. the ambient snapshot
//  2. project env, environment block env, dotenv (minus runtime markers),
//     project identity
//  3. runtime activation (managed runtimes only)
//  4. plugin identity
//  5. per-command env defaults, then resolved settings aliases
//  6. overrides
func (c *Composer) Compose(in ComposeInput) map[string]string {
	env := c.Ambient()

	// A dotenv file often captures a developer's shell, runtime markers
	// included; those never reach the child from there.
	dotenv := maps.Clone(in.Dotenv)
	venv.StripIsolation(dotenv)

	if p := in.Project; p != nil {
		mergeExpanded(env, p.Env())
		mergeExpanded(env, p.EnvironmentEnv())
		maps.Copy(env, dotenv)
		env[EnvProjectRoot] = p.Root()
		env[EnvLogLevel] = p.LogLevel()
		if name := p.EnvironmentName(); name != "" {
			env[EnvEnvironment] = name
		}
	} else {
		maps.Copy(env, dotenv)
	}

	if in.Runtime != nil {
		maps.Copy(env, in.Runtime.ActivationEnv(env["PATH"]))
	}

	if def := in.Plugin; def != nil {
		prefix := "MELTANO_" + strings.ToUpper(def.Kind.Singular())
		env[prefix+"_NAME"] = def.Name
		env[prefix+"_NAMESPACE"] = def.Namespace
		env[prefix+"_EXECUTABLE"] = in.Executable
	}

	mergeExpanded(env, in.CommandEnv)
	maps.Copy(env, in.Settings)
	maps.Copy(env, in.Overrides)
	return env
}

// mergeExpanded copies src into dst, expanding $VAR and ${VAR} references
// in values against dst as it stands. Keys are applied in sorted order so the
// result does not depend on map iteration.
func mergeExpanded(dst, src map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(src)) {
		dst[k] = expandValue(src[k], dst)
	}
}

// expandValue expands parameter references in s. Unset variables expand to
// the empty string. Values using any other shell feature are kept verbatim.
func expandValue(s string, env map[string]string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	word, err := syntax.NewParser().Document(strings.NewReader(s))
	if err != nil {
		return s
	}
	cfg := &expand.Config{Env: expand.ListEnviron(mapToEnviron(env)...)}
	out, err := expand.Document(cfg, word)
	if err != nil {
		return s
	}
	return out
}

func environToMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// mapToEnviron renders env as sorted "KEY=VALUE" strings.
func mapToEnviron(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
