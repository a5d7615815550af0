// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"meltano-cli/internal/config"
	"meltano-cli/internal/install"
	"meltano-cli/internal/invoker"
	"meltano-cli/internal/project"
	"meltano-cli/internal/tracking"
	"meltano-cli/internal/venv"
)

type (
	// ConfigProvider loads CLI configuration.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// InstallerFactory builds the installer for one project.
	InstallerFactory func(projectRoot string, cfg *config.Config, stdout, stderr io.Writer) install.Installer

	// App wires the services every command handler uses.
	App struct {
		Config       ConfigProvider
		Launcher     invoker.Launcher
		NewInstaller InstallerFactory
		Tracker      tracking.Tracker
		// Environ is the ambient environment handed to plugins.
		Environ func() []string
		// Getwd is where project discovery starts.
		Getwd func() (string, error)

		cfg    *config.Config
		logger *slog.Logger
		// globalLogger makes the configured logger the slog default.
		globalLogger bool
		// logTracker is set when Tracker is the default log tracker, which
		// follows the logger configure builds.
		logTracker bool
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config       ConfigProvider
		Launcher     invoker.Launcher
		NewInstaller InstallerFactory
		Tracker      tracking.Tracker
		Environ      func() []string
		Getwd        func() (string, error)
	}
)

// NewApp builds an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:       deps.Config,
		Launcher:     deps.Launcher,
		NewInstaller: deps.NewInstaller,
		Tracker:      deps.Tracker,
		Environ:      deps.Environ,
		Getwd:        deps.Getwd,
		cfg:          config.DefaultConfig(),
		logger:       slog.Default(),
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Launcher == nil {
		app.Launcher = invoker.NewExecLauncher()
	}
	if app.NewInstaller == nil {
		app.NewInstaller = shellInstaller
	}
	if app.Tracker == nil {
		app.Tracker = tracking.LogTracker{Logger: app.logger}
		app.logTracker = true
	}
	if app.Environ == nil {
		app.Environ = os.Environ
	}
	if app.Getwd == nil {
		app.Getwd = os.Getwd
	}
	return app
}

func shellInstaller(projectRoot string, cfg *config.Config, stdout, stderr io.Writer) install.Installer {
	return &install.ShellInstaller{
		Resolver:    venv.NewResolver(projectRoot),
		ProjectRoot: projectRoot,
		Command:     cfg.Install.Command,
		Stdout:      stdout,
		Stderr:      stderr,
	}
}

// getenv reads one variable from the App's environment.
func (a *App) getenv(key string) string {
	prefix := key + "="
	for _, entry := range a.Environ() {
		if v, ok := strings.CutPrefix(entry, prefix); ok {
			return v
		}
	}
	return ""
}

// openProject discovers and loads the project, honouring
// MELTANO_PROJECT_ROOT from the App's environment. The environment is chosen
// from, in order: the explicit name, MELTANO_ENVIRONMENT, the CLI config
// default, and the project's default_environment.
func (a *App) openProject(environment string) (*project.Project, error) {
	wd, err := a.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := project.Find(wd, a.getenv(project.EnvProjectRoot))
	if err != nil {
		return nil, wrapProjectError(err, wd)
	}

	if environment == "" {
		environment = a.getenv(project.EnvEnvironment)
	}
	if environment == "" {
		environment = a.cfg.DefaultEnvironment
	}

	proj, err := project.Load(root,
		project.WithEnvironment(environment),
		project.WithLogLevel(string(a.cfg.CLI.LogLevel)),
	)
	if err != nil {
		return nil, wrapProjectError(err, root)
	}
	return proj, nil
}
