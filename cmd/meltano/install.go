// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"meltano-cli/internal/project"
	"meltano-cli/pkg/plugin"
)

type installFlags struct {
	pluginType string
}

func newInstallCommand(app *App) *cobra.Command {
	flags := &installFlags{}

	cmd := &cobra.Command{
		Use:   "install [flags] [PLUGIN...]",
		Short: "Create the isolated runtimes of the project's plugins",
		Long:  "Install the named plugins, or every plugin with a pip_url when none is named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runInstall(cmd, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.pluginType, "plugin-type", "", "only consider plugins of this type")
	return cmd
}

func (a *App) runInstall(cmd *cobra.Command, flags *installFlags, names []string) error {
	var kind plugin.Kind
	if flags.pluginType != "" {
		var err error
		if kind, err = plugin.ParseKind(flags.pluginType); err != nil {
			return err
		}
	}

	proj, err := a.openProject("")
	if err != nil {
		return err
	}

	defs, err := installTargets(proj, kind, names)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	installer := a.NewInstaller(proj.Root(), a.cfg, cmd.ErrOrStderr(), cmd.ErrOrStderr())
	for _, def := range defs {
		if !def.Managed() {
			fmt.Fprintf(out, "%s %s has no pip_url, nothing to install\n", SubtitleStyle.Render("Skipped"), CmdStyle.Render(def.Name))
			continue
		}
		rt, err := installer.Install(cmd.Context(), def)
		if err != nil {
			return wrapPluginError(err, "install plugin", def.Name)
		}
		fmt.Fprintf(out, "%s %s into %s\n", SuccessStyle.Render("Installed"), CmdStyle.Render(def.Name), rt.Root())
	}
	return nil
}

func installTargets(proj *project.Project, kind plugin.Kind, names []string) ([]*plugin.Definition, error) {
	if len(names) == 0 {
		if kind != "" {
			return proj.Plugins(kind), nil
		}
		var all []*plugin.Definition
		for _, k := range plugin.Kinds() {
			all = append(all, proj.Plugins(k)...)
		}
		return all, nil
	}

	defs := make([]*plugin.Definition, 0, len(names))
	for _, name := range names {
		def, err := proj.FindPluginByInvocationAlias(name, kind)
		if err != nil {
			return nil, wrapPluginError(err, "find plugin", name)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
