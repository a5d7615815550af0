// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"meltano-cli/internal/config"
)

func newCLIConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cli-config",
		Short: "Manage the CLI's own configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective CLI configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(app.cfg))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default CLI configuration file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Configuration file: ")+path)
			return nil
		},
	})

	return cmd
}
