// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"meltano-cli/internal/config"
	"meltano-cli/internal/tracking"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type rootFlags struct {
	verbose  bool
	cfgFile  string
	logLevel string
}

// getVersionString prefers ldflags, then module build info.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "meltano",
		Short: "Run data integration plugins with resolved settings",
		Long: TitleStyle.Render("meltano") + SubtitleStyle.Render(" - run data integration plugins") + "\n\n" + heredoc.Doc(`
			Plugins are declared in meltano.yml. Each invocation resolves the
			plugin's isolated runtime, layers its settings from defaults,
			meltano.yml, the active environment, .env and the process
			environment, and runs its executable with the composed environment.
		`) + "\n" + SubtitleStyle.Render("Examples:") + "\n" + heredoc.Doc(`
			  meltano invoke tap-gitlab --discover
			  meltano invoke dbt:run
			  meltano invoke --list-commands dbt
			  meltano config tap-gitlab
			  meltano install tap-gitlab
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.configure(cmd.Context(), flags, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "CLI config file (default is $HOME/.config/meltano/config.cue)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warning, error, critical")

	root.AddCommand(
		newInvokeCommand(app),
		newInstallCommand(app),
		newConfigCommand(app),
		newCLIConfigCommand(app),
	)
	return root
}

// configure loads the CLI config and sets up logging. A broken config file
// is reported and defaults are used.
func (a *App) configure(ctx context.Context, flags *rootFlags, stderr io.Writer) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.cfgFile, Environ: a.Environ})
	if err != nil {
		fmt.Fprintln(stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}

	if flags.logLevel != "" {
		level := config.LogLevel(flags.logLevel)
		if err := level.Validate(); err != nil {
			return err
		}
		cfg.CLI.LogLevel = level
	}
	if flags.verbose {
		cfg.UI.Verbose = true
	}
	a.cfg = cfg

	a.logger = newLogger(stderr, cfg.CLI.LogLevel, cfg.UI.Verbose)
	if a.globalLogger {
		slog.SetDefault(a.logger)
	}
	if a.logTracker {
		a.Tracker = tracking.LogTracker{Logger: a.logger}
	}
	return nil
}

// Execute runs the CLI and exits with the plugin's status,
// ExitInvocationFailed when invoke failed before launching it, or 1 for any
// other failure.
func Execute() {
	app := NewApp(Dependencies{})
	app.globalLogger = true

	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.cfg.UI.Verbose, app.cfg.UI.ColorScheme)
		}),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
