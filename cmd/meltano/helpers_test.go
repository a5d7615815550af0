// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"meltano-cli/internal/config"
	"meltano-cli/internal/install"
	"meltano-cli/internal/invoker"
	"meltano-cli/internal/tracking"
	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

const testProject = `
version: 1
default_environment: dev
plugins:
  extractors:
    - name: tap-mock
      executable: /opt/bin/tap-mock
      settings:
        - name: test
          value: mock
        - name: password
          kind: password
          value: hunter2
      config:
        custom_extra: 42
  utilities:
    - name: utility-mock
      executable: utility-mock
      commands:
        cmd:
          args: utility --option $ENV_VAR_ARG
          description: description of utility command
          env:
            ENV_VAR_ARG: from_command
    - name: managed-mock
      pip_url: managed-mock==1.0
environments:
  - name: dev
    env:
      ENV_VAR: dev
  - name: prod
    env:
      ENV_VAR: prod
`

type (
	staticConfig struct {
		cfg *config.Config
	}

	fakeLauncher struct {
		mu    sync.Mutex
		specs []invoker.LaunchSpec
		code  invoker.ExitCode
	}

	fakeProcess struct {
		code invoker.ExitCode
	}

	fakeInstaller struct {
		root  string
		calls int
	}

	recordingTracker struct {
		mu     sync.Mutex
		events []tracking.Event
	}

	testEnv struct {
		root      string
		app       *App
		launcher  *fakeLauncher
		installer *fakeInstaller
		tracker   *recordingTracker
	}
)

func (c staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cfg := *c.cfg
	return &cfg, nil
}

func (l *fakeLauncher) Launch(_ context.Context, spec invoker.LaunchSpec) (invoker.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	return &fakeProcess{code: l.code}, nil
}

func (l *fakeLauncher) launches() []invoker.LaunchSpec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]invoker.LaunchSpec(nil), l.specs...)
}

func (p *fakeProcess) Pid() int               { return 4242 }
func (p *fakeProcess) Wait() *invoker.Result { return &invoker.Result{ExitCode: p.code} }
func (p *fakeProcess) Kill() error           { return nil }

func (f *fakeInstaller) Install(_ context.Context, def *plugin.Definition) (*venv.VirtualEnv, error) {
	f.calls++
	rt, err := venv.NewResolver(f.root).Root(def.RuntimeNamespace(), def.Name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(rt.BinDir(), 0o755); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *recordingTracker) TrackEvent(_ context.Context, ev tracking.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingTracker) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "meltano.yml"), []byte(testProject), 0o600); err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		root:      root,
		launcher:  &fakeLauncher{},
		installer: &fakeInstaller{root: root},
		tracker:   &recordingTracker{},
	}
	env.app = NewApp(Dependencies{
		Config:   staticConfig{cfg: config.DefaultConfig()},
		Launcher: env.launcher,
		NewInstaller: func(string, *config.Config, io.Writer, io.Writer) install.Installer {
			return env.installer
		},
		Tracker: env.tracker,
		Environ: func() []string { return []string{"HOME=/home/test", "VIRTUAL_ENV=/outer/venv"} },
		Getwd:   func() (string, error) { return root, nil },
	})
	return env
}

func (e *testEnv) run(args ...string) (stdout, stderr string, err error) {
	root := NewRootCommand(e.app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func envMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, entry := range environ {
		k, v, _ := strings.Cut(entry, "=")
		out[k] = v
	}
	return out
}
