// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ProjectNotFoundId Id = iota + 1
	ProjectParseErrorId
	PluginNotFoundId
	UnknownCommandId
	UndefinedVariableId
	RuntimeNotFoundId
	UnsupportedPlatformId
	SettingsConfigErrorId
	ConfigLoadFailedId
	InstallFailedId
	ExecutableNotFoundId
)

type (
	// MarkdownMsg is Markdown text rendered for the user.
	MarkdownMsg string

	// HttpLink points at further documentation.
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the message with the given glamour style ("dark", "light",
// "notty" or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

const docsBase = "https://docs.meltano.com"

var (
	render = glamour.Render

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# No Meltano project found!

We looked for a ` + "`meltano.yml`" + ` in the current directory and every parent directory.

## Things you can try:
- Run the command from inside your project directory
- Point at the project explicitly:
~~~
$ MELTANO_PROJECT_ROOT=/path/to/project meltano invoke tap-gitlab
~~~`,
		docLinks: []HttpLink{docsBase + "/concepts/project"},
	}

	projectParseErrorIssue = &Issue{
		id: ProjectParseErrorId,
		mdMsg: `
# Failed to parse meltano.yml!

The project file is not valid YAML or does not match the project schema.

## Common issues:
- A plugin listed under an unknown plugin type
- A plugin without a ` + "`name`" + `
- A setting with an unknown ` + "`kind`" + `

## Example plugin definition:
~~~yaml
plugins:
  extractors:
  - name: tap-gitlab
    pip_url: tap-gitlab==1.0.0
    settings:
    - name: projects
    - name: start_date
      kind: date_iso8601
~~~`,
		docLinks: []HttpLink{docsBase + "/reference/meltano-yml"},
	}

	pluginNotFoundIssue = &Issue{
		id: PluginNotFoundId,
		mdMsg: `
# Plugin not found!

The plugin you named is not declared in this project.

## Things you can try:
- Check the spelling, or qualify it with a type: ` + "`--plugin-type extractors`" + `
- Add the plugin to ` + "`meltano.yml`" + ` under the matching plugin type`,
		docLinks: []HttpLink{docsBase + "/reference/command-line-interface#invoke"},
	}

	unknownCommandIssue = &Issue{
		id: UnknownCommandId,
		mdMsg: `
# Unknown plugin command!

The command is not defined for this plugin.

## Things you can try:
- List the commands the plugin defines:
~~~
$ meltano invoke --list-commands <plugin>
~~~
- Define it under the plugin's ` + "`commands`" + ` key`,
	}

	undefinedVariableIssue = &Issue{
		id: UndefinedVariableId,
		mdMsg: `
# Undefined environment variable in command!

A plugin command references a variable that has no value in the plugin's environment.

## Things you can try:
- Define the variable in the command's ` + "`env`" + ` block
- Export it from ` + "`.env`" + `, the active environment, or your shell`,
	}

	runtimeNotFoundIssue = &Issue{
		id: RuntimeNotFoundId,
		mdMsg: `
# Plugin runtime not installed!

The plugin declares a ` + "`pip_url`" + ` but its virtual environment does not exist yet.

## Things you can try:
- Install the plugin first:
~~~
$ meltano install extractor tap-gitlab
~~~
- Or install it on the fly:
~~~
$ meltano invoke --install tap-gitlab
~~~`,
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Platform not supported!

Plugin runtimes can only be laid out on Linux, macOS and Windows.`,
	}

	settingsConfigErrorIssue = &Issue{
		id: SettingsConfigErrorId,
		mdMsg: `
# Invalid plugin setting!

A setting value could not be interpreted as its declared kind, or a required setting has no value.

## Things you can try:
- Inspect the resolved configuration:
~~~
$ meltano invoke --dump config <plugin>
~~~
- Set the value through the setting's environment variable or ` + "`.env`",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the CLI configuration file.

## Configuration file locations:
- Linux: ~/.config/meltano/config.cue
- macOS: ~/Library/Application Support/meltano/config.cue
- Windows: %APPDATA%\meltano\config.cue

## Example configuration:
~~~cue
cli: log_level: "info"
install: command: "uv venv $MELTANO_VENV_ROOT && uv pip install --python $MELTANO_VENV_BIN/python $MELTANO_PIP_URL"
ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Plugin installation failed!

The install command exited with an error. Its output is shown above.

## Things you can try:
- Check that ` + "`python3`" + ` is on your PATH
- Verify the plugin's ` + "`pip_url`" + ``,
	}

	executableNotFoundIssue = &Issue{
		id: ExecutableNotFoundId,
		mdMsg: `
# Plugin executable could not be started!

The executable was not found or is not runnable.

## Things you can try:
- Reinstall the plugin so its executable lands in the virtual environment
- Set ` + "`executable`" + ` in ` + "`meltano.yml`" + ` if the binary has a different name`,
	}

	issues = map[Id]*Issue{
		projectNotFoundIssue.Id():     projectNotFoundIssue,
		projectParseErrorIssue.Id():   projectParseErrorIssue,
		pluginNotFoundIssue.Id():      pluginNotFoundIssue,
		unknownCommandIssue.Id():      unknownCommandIssue,
		undefinedVariableIssue.Id():   undefinedVariableIssue,
		runtimeNotFoundIssue.Id():     runtimeNotFoundIssue,
		unsupportedPlatformIssue.Id(): unsupportedPlatformIssue,
		settingsConfigErrorIssue.Id(): settingsConfigErrorIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		installFailedIssue.Id():       installFailedIssue,
		executableNotFoundIssue.Id():  executableNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

func Get(id Id) *Issue {
	return issues[id]
}
