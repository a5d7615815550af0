// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/bytedance/sonic"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"meltano-cli/internal/invoker"
	"meltano-cli/internal/project"
	"meltano-cli/internal/tracking"
	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

// Values accepted by --dump.
const (
	dumpConfig     = "config"
	dumpEnv        = "env"
	dumpExtras     = "extras"
	dumpConfigFile = "config-file"
)

var dumpJSON = sonic.Config{SortMapKeys: true, EscapeHTML: false}.Froze()

type invokeFlags struct {
	listCommands bool
	dump         string
	environment  string
	env          []string
	install      bool
	pluginType   string
}

func newInvokeCommand(app *App) *cobra.Command {
	flags := &invokeFlags{}

	cmd := &cobra.Command{
		Use:   "invoke [flags] PLUGIN[:COMMAND] [PLUGIN_ARGS...]",
		Short: "Run a plugin's executable or one of its commands",
		Long: heredoc.Doc(`
			Run a plugin with its settings resolved into the environment.

			PLUGIN:COMMAND runs a command declared under the plugin's
			"commands" key. Everything after the plugin name is passed to the
			plugin unchanged. The exit status is the plugin's, or 125 when
			the plugin could not be launched at all.
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.runInvoke(cmd.Context(), cmd, flags, args)
			var exitErr *ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return &ExitError{Code: ExitInvocationFailed, Err: err}
			}
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().BoolVar(&flags.listCommands, "list-commands", false, "list the plugin's commands and exit")
	cmd.Flags().StringVar(&flags.dump, "dump", "", "print the resolved config, env, extras or config-file instead of running")
	cmd.Flags().StringVar(&flags.environment, "environment", "", "environment to activate")
	cmd.Flags().StringArrayVar(&flags.env, "env", nil, "KEY=VALUE override for this run (repeatable)")
	cmd.Flags().BoolVar(&flags.install, "install", false, "install the plugin's runtime when it is missing")
	cmd.Flags().StringVar(&flags.pluginType, "plugin-type", "", "plugin type, e.g. extractors or extractor")

	return cmd
}

func (a *App) runInvoke(ctx context.Context, cmd *cobra.Command, flags *invokeFlags, args []string) error {
	if err := validateDump(flags.dump); err != nil {
		return err
	}
	overrides, err := parseEnvOverrides(flags.env)
	if err != nil {
		return err
	}

	var kind plugin.Kind
	if flags.pluginType != "" {
		if kind, err = plugin.ParseKind(flags.pluginType); err != nil {
			return err
		}
	}

	proj, err := a.openProject(flags.environment)
	if err != nil {
		return err
	}

	name, command := project.ParseInvocation(args[0])
	def, err := proj.FindPluginByInvocationAlias(name, kind)
	if err != nil {
		return wrapPluginError(err, "find plugin", name)
	}

	if flags.listCommands {
		return listCommands(cmd.OutOrStdout(), def)
	}

	inv, err := a.prepareInvoker(ctx, cmd, proj, def, flags.install)
	if err != nil {
		return wrapPluginError(err, "prepare plugin", def.Name)
	}
	defer func() {
		if cerr := inv.Cleanup(); cerr != nil {
			a.logger.Warn("plugin cleanup failed", "plugin", def.Name, "error", cerr)
		}
	}()

	if flags.dump != "" {
		if err := dump(cmd.OutOrStdout(), inv, flags.dump, overrides); err != nil {
			return wrapPluginError(err, "dump "+flags.dump, def.Name)
		}
		return nil
	}

	return a.invoke(ctx, cmd, inv, command, overrides, args[1:])
}

// prepareInvoker prepares def, installing the runtime first when it is
// missing and install is set.
func (a *App) prepareInvoker(ctx context.Context, cmd *cobra.Command, proj *project.Project, def *plugin.Definition, install bool) (*invoker.Invoker, error) {
	newInvoker := func() *invoker.Invoker {
		return invoker.New(def, proj,
			invoker.WithResolver(venv.NewResolver(proj.Root())),
			invoker.WithEnviron(a.Environ),
			invoker.WithLauncher(a.Launcher),
			invoker.WithLogger(a.logger),
		)
	}

	inv := newInvoker()
	err := inv.Prepare(ctx)
	if err == nil || !install || !errors.Is(err, venv.ErrRuntimeNotFound) {
		return inv, err
	}

	installer := a.NewInstaller(proj.Root(), a.cfg, cmd.ErrOrStderr(), cmd.ErrOrStderr())
	if _, err := installer.Install(ctx, def); err != nil {
		return nil, err
	}
	inv = newInvoker()
	return inv, inv.Prepare(ctx)
}

func (a *App) invoke(ctx context.Context, cmd *cobra.Command, inv *invoker.Invoker, command string, overrides map[string]string, args []string) error {
	def := inv.Plugin()
	a.Tracker.TrackEvent(ctx, tracking.NewEvent(tracking.EventInvocationStarted, def.Name, command))

	proc, err := inv.Invoke(ctx, invoker.InvokeOptions{
		Command: command,
		Env:     overrides,
		Stdin:   stdinOf(cmd),
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}, args...)
	if err != nil {
		ev := tracking.NewEvent(tracking.EventInvocationFailed, def.Name, command)
		ev.ExitCode = 1
		a.Tracker.TrackEvent(ctx, ev)
		return wrapPluginError(err, "invoke plugin", def.Name)
	}

	res := proc.Wait()
	ev := tracking.NewEvent(tracking.EventInvocationCompleted, def.Name, command)
	ev.ExitCode = int(res.ExitCode)
	a.Tracker.TrackEvent(ctx, ev)

	if res.Error != nil {
		return &ExitError{Code: int(res.ExitCode), Err: res.Error}
	}
	if !res.ExitCode.IsSuccess() {
		return &ExitError{Code: int(res.ExitCode)}
	}
	return nil
}

// stdinOf returns the command's input unless it is the process stdin, which
// the launcher attaches itself.
func stdinOf(cmd *cobra.Command) io.Reader {
	if in := cmd.InOrStdin(); in != os.Stdin {
		return in
	}
	return nil
}

// listCommands prints one row per command: the invocation, its description
// and the variables its arguments need from the environment.
func listCommands(w io.Writer, def *plugin.Definition) error {
	registry := def.Registry()
	if registry.Len() == 0 {
		_, err := fmt.Fprintf(w, "%s declares no commands\n", def.Name)
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	for _, c := range registry.List() {
		refs := c.Args.References()
		for i, ref := range refs {
			refs[i] = "$" + ref
		}
		table.AddRow(CmdStyle.Render(def.Name+":"+c.Name), c.Description, strings.Join(refs, " "))
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func validateDump(what string) error {
	switch what {
	case "", dumpConfig, dumpEnv, dumpExtras, dumpConfigFile:
		return nil
	default:
		return fmt.Errorf("invalid --dump value %q (valid: %s, %s, %s, %s)", what, dumpConfig, dumpEnv, dumpExtras, dumpConfigFile)
	}
}

func dump(w io.Writer, inv *invoker.Invoker, what string, overrides map[string]string) error {
	switch what {
	case dumpConfig:
		return writeJSON(w, inv.Settings().AsMap(true))

	case dumpExtras:
		resolved, err := inv.ResolveSettings(settingsWithExtras)
		if err != nil {
			return err
		}
		extras := make(map[string]any)
		for _, s := range resolved.Settings() {
			if s.Extra {
				extras[s.Setting.Name] = s.Value
			}
		}
		return writeJSON(w, extras)

	case dumpEnv:
		env, err := inv.Env(overrides)
		if err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(env)) {
			if _, err := fmt.Fprintf(w, "%s=%s\n", k, env[k]); err != nil {
				return err
			}
		}
		return nil

	case dumpConfigFile:
		path := inv.ConfigFilePath()
		if path == "" {
			return fmt.Errorf("plugin %s declares no config file", inv.Plugin().Name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := dumpJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseEnvOverrides parses repeated KEY=VALUE flags. Later flags win.
func parseEnvOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env value %q (expected KEY=VALUE)", pair)
		}
		out[k] = v
	}
	return out, nil
}
