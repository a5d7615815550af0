// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"meltano-cli/internal/venv"
	"meltano-cli/pkg/platform"
	"meltano-cli/pkg/plugin"
)

type (
	fakeProject struct {
		root        string
		env         map[string]string
		envName     string
		envBlockEnv map[string]string
		config      map[string]any
		envConfig   map[string]any
	}

	fakeLauncher struct {
		mu    sync.Mutex
		specs []LaunchSpec
		code  ExitCode
		err   error
	}

	fakeProcess struct {
		code ExitCode
	}
)

func (p *fakeProject) Root() string                      { return p.root }
func (p *fakeProject) DotenvPath() string                { return filepath.Join(p.root, ".env") }
func (p *fakeProject) Env() map[string]string            { return p.env }
func (p *fakeProject) EnvironmentName() string           { return p.envName }
func (p *fakeProject) EnvironmentEnv() map[string]string { return p.envBlockEnv }
func (p *fakeProject) LogLevel() string                  { return "info" }

func (p *fakeProject) PluginConfig(plugin.Kind, string) map[string]any { return p.config }

func (p *fakeProject) EnvironmentPluginConfig(plugin.Kind, string) map[string]any {
	return p.envConfig
}

func (l *fakeLauncher) Launch(_ context.Context, spec LaunchSpec) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if l.err != nil {
		return nil, l.err
	}
	return &fakeProcess{code: l.code}, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.specs)
}

func (p *fakeProcess) Pid() int      { return 4242 }
func (p *fakeProcess) Wait() *Result { return &Result{ExitCode: p.code} }
func (p *fakeProcess) Kill() error   { return nil }

func newFakeProject(t *testing.T) *fakeProject {
	t.Helper()
	return &fakeProject{root: filepath.Join(t.TempDir(), "meltano_project")}
}

func utilityMock(t *testing.T) *plugin.Definition {
	t.Helper()

	cmd, err := plugin.NewCommand("cmd", "utility --option $ENV_VAR_ARG", "description of utility command")
	if err != nil {
		t.Fatal(err)
	}
	return &plugin.Definition{
		Name:      "utility-mock",
		Namespace: "utility_mock",
		Kind:      plugin.KindUtilities,
		PipURL:    "utility-mock",
		Commands:  map[string]plugin.Command{"cmd": cmd},
	}
}

func tapMock() *plugin.Definition {
	return &plugin.Definition{
		Name:      "tap-mock",
		Namespace: "tap_mock",
		Kind:      plugin.KindExtractors,
		PipURL:    "tap-mock",
		Settings: []plugin.Setting{
			{Name: "test", Value: "mock"},
			{Name: "_select", Kind: plugin.SettingArray, Value: []any{"*.*"}},
		},
	}
}

func nonpipTap() *plugin.Definition {
	return tapMock().With(func(d *plugin.Definition) {
		d.Name = "tap-mock-noinstall"
		d.PipURL = ""
		d.Executable = "tap-mock"
	})
}

// installRuntime materializes an empty runtime for def.
func installRuntime(t *testing.T, root string, def *plugin.Definition) {
	t.Helper()

	bin := filepath.Join(root, venv.StateDir, def.RuntimeNamespace(), def.Name, "venv", "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeDotenv(t *testing.T, root, content string) {
	t.Helper()

	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func staticEnviron(vars ...string) func() []string {
	return func() []string { return vars }
}

// newTestInvoker builds an invoker on Linux paths with a fixed ambient
// environment and a fake launcher.
func newTestInvoker(t *testing.T, def *plugin.Definition, proj *fakeProject, launcher *fakeLauncher, environ ...string) *Invoker {
	t.Helper()

	if environ == nil {
		environ = []string{"PATH=/usr/bin:/bin", "HOME=/home/test"}
	}
	return New(def, proj,
		WithResolver(venv.NewResolver(proj.root, venv.WithPlatform(platform.Linux))),
		WithEnviron(staticEnviron(environ...)),
		WithLauncher(launcher),
	)
}

func mustPrepare(t *testing.T, inv *Invoker) {
	t.Helper()

	if err := inv.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	t.Cleanup(func() { _ = inv.Cleanup() })
}
