// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"meltano-cli/internal/invoker"
	"meltano-cli/internal/settings"
	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

const redacted = "(redacted)"

var settingsWithExtras = settings.ResolveOptions{Extras: true}

type configFlags struct {
	environment string
	pluginType  string
	extras      bool
	format      string
}

func newConfigCommand(app *App) *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "config [flags] PLUGIN",
		Short: "Show a plugin's resolved settings and where each value came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runConfig(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.environment, "environment", "", "environment to activate")
	cmd.Flags().StringVar(&flags.pluginType, "plugin-type", "", "plugin type, e.g. loaders or loader")
	cmd.Flags().BoolVar(&flags.extras, "extras", false, "include settings the plugin does not declare")
	cmd.Flags().StringVar(&flags.format, "format", "table", "output format: table or json")

	return cmd
}

func (a *App) runConfig(cmd *cobra.Command, flags *configFlags, name string) error {
	if flags.format != "table" && flags.format != "json" {
		return fmt.Errorf("invalid --format %q (valid: table, json)", flags.format)
	}

	var kind plugin.Kind
	if flags.pluginType != "" {
		var err error
		if kind, err = plugin.ParseKind(flags.pluginType); err != nil {
			return err
		}
	}

	proj, err := a.openProject(flags.environment)
	if err != nil {
		return err
	}
	def, err := proj.FindPluginByInvocationAlias(name, kind)
	if err != nil {
		return wrapPluginError(err, "find plugin", name)
	}

	// Settings do not depend on the runtime, so an uninstalled plugin is
	// shown through an unmanaged copy of its definition.
	shown := def
	if def.Managed() {
		if _, err := venv.NewResolver(proj.Root()).Resolve(def.RuntimeNamespace(), def.Name); err != nil {
			shown = def.With(func(d *plugin.Definition) { d.PipURL = "" })
		}
	}

	inv := invoker.New(shown, proj,
		invoker.WithEnviron(a.Environ),
		invoker.WithLauncher(a.Launcher),
		invoker.WithLogger(a.logger),
	)
	return inv.Prepared(cmd.Context(), func(inv *invoker.Invoker) error {
		resolved, err := inv.ResolveSettings(settings.ResolveOptions{Extras: flags.extras})
		if err != nil {
			return wrapPluginError(err, "resolve settings", def.Name)
		}
		if flags.format == "json" {
			return writeJSON(cmd.OutOrStdout(), resolved.AsMap(true))
		}
		return settingsTable(cmd.OutOrStdout(), resolved)
	})
}

func settingsTable(w io.Writer, resolved *settings.Resolved) error {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("SETTING", "VALUE", "SOURCE", "ENV")

	for _, s := range resolved.Settings() {
		value := s.Text
		switch {
		case s.Value == nil:
			value = SubtitleStyle.Render("(unset)")
		case s.Setting.Kind == plugin.SettingPassword:
			value = redacted
		}
		name := s.Setting.Name
		if s.Extra {
			name += " " + SubtitleStyle.Render("(extra)")
		}
		table.AddRow(name, value, string(s.Source), strings.Join(s.Env, ", "))
	}

	_, err := fmt.Fprintln(w, table)
	return err
}
