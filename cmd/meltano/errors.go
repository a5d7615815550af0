// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"meltano-cli/internal/config"
	"meltano-cli/internal/install"
	"meltano-cli/internal/invoker"
	"meltano-cli/internal/issue"
	"meltano-cli/internal/project"
	"meltano-cli/internal/settings"
	"meltano-cli/internal/venv"
	"meltano-cli/pkg/plugin"
)

// classifyError maps a failure to its catalog entry.
func classifyError(err error) issue.Id {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return issue.ProjectNotFoundId
	case errors.Is(err, project.ErrPluginNotFound), errors.Is(err, project.ErrAmbiguousPlugin):
		return issue.PluginNotFoundId
	case errors.Is(err, plugin.ErrUnknownCommand):
		return issue.UnknownCommandId
	case errors.Is(err, plugin.ErrUndefinedEnvVar):
		return issue.UndefinedVariableId
	case errors.Is(err, venv.ErrRuntimeNotFound):
		return issue.RuntimeNotFoundId
	case errors.Is(err, venv.ErrUnsupportedPlatform):
		return issue.UnsupportedPlatformId
	case errors.Is(err, settings.ErrConfig):
		return issue.SettingsConfigErrorId
	case errors.Is(err, install.ErrInstall):
		return issue.InstallFailedId
	case errors.Is(err, invoker.ErrLaunch):
		return issue.ExecutableNotFoundId
	default:
		return 0
	}
}

// wrapProjectError attaches context to project discovery and loading failures.
func wrapProjectError(err error, resource string) error {
	ctx := issue.NewErrorContext().WithOperation("load project").WithResource(resource).Wrap(err)

	var envErr *project.EnvironmentNotFoundError
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		ctx.WithIssue(issue.ProjectNotFoundId)
	case errors.As(err, &envErr):
		if len(envErr.Available) > 0 {
			ctx.WithSuggestion("Available environments: " + strings.Join(envErr.Available, ", "))
		}
	default:
		ctx.WithIssue(issue.ProjectParseErrorId)
	}
	return ctx.BuildError()
}

// wrapPluginError attaches context and a catalog entry to a failure
// involving one plugin.
func wrapPluginError(err error, operation, pluginName string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(pluginName).
		WithIssue(classifyError(err)).
		Wrap(err)

	if errors.Is(err, venv.ErrRuntimeNotFound) {
		ctx.WithSuggestion(fmt.Sprintf("Run 'meltano install %s' or pass --install", pluginName))
	}
	return ctx.BuildError()
}

// formatErrorForDisplay formats err for the terminal. ActionableErrors get
// their suggestions and, in verbose mode, the full chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError prints err and, when the chain points at a catalog entry, its
// rendered guidance. Plugin exit statuses print nothing.
func renderError(w io.Writer, err error, verbose bool, scheme config.ColorScheme) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	entry := issue.Explain(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(glamourStyle(scheme))
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issue", entry.Id(), "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		return "auto"
	}
}
