// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrUnknownCommand is the sentinel error wrapped by UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUndefinedEnvVar is the sentinel error wrapped by UndefinedEnvVarError.
	ErrUndefinedEnvVar = errors.New("undefined environment variable")
)

type (
	// Command is a named argument template declared by a plugin.
	Command struct {
		Name        string
		Args        Template
		Description string
		// Executable replaces the plugin executable for this command.
		Executable string
		// Env holds per-command defaults. Resolved settings and explicit
		// overrides take precedence over them.
		Env map[string]string
	}

	// Registry resolves command aliases for one plugin.
	Registry struct {
		plugin   string
		commands map[string]Command
	}

	// UnknownCommandError is returned when a command alias is not declared.
	UnknownCommandError struct {
		Plugin    string
		Command   string
		Available []Command
	}

	// UndefinedEnvVarError is returned when a template references a
	// variable absent from the composed environment.
	UndefinedEnvVarError struct {
		Command  string
		Variable string
	}
)

// NewCommand parses args and returns the command.
func NewCommand(name, args, description string) (Command, error) {
	tpl, err := ParseTemplate(args)
	if err != nil {
		return Command{}, fmt.Errorf("command %q: %w", name, err)
	}
	return Command{Name: name, Args: tpl, Description: description}, nil
}

// ExpandArgs substitutes env into the command template.
func (c Command) ExpandArgs(env map[string]string) ([]string, error) {
	args, missing := c.Args.Expand(env)
	if missing != "" {
		return nil, &UndefinedEnvVarError{Command: c.Name, Variable: missing}
	}
	return args, nil
}

// NewRegistry indexes commands by name. Names are matched exactly.
func NewRegistry(pluginName string, commands map[string]Command) *Registry {
	r := &Registry{plugin: pluginName, commands: make(map[string]Command, len(commands))}
	for name, cmd := range commands {
		if cmd.Name == "" {
			cmd.Name = name
		}
		r.commands[name] = cmd
	}
	return r
}

// Lookup returns the command declared under name.
func (r *Registry) Lookup(name string) (Command, error) {
	cmd, ok := r.commands[name]
	if !ok {
		return Command{}, &UnknownCommandError{Plugin: r.plugin, Command: name, Available: r.List()}
	}
	return cmd, nil
}

// Names returns the declared command names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.commands))
}

// List returns the declared commands sorted by name.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, name := range r.Names() {
		out = append(out, r.commands[name])
	}
	return out
}

// Len returns the number of declared commands.
func (r *Registry) Len() int { return len(r.commands) }

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command '%s' could not be found.", e.Command)
	if len(e.Available) == 0 {
		fmt.Fprintf(&b, " %s does not declare any commands.", e.Plugin)
		return b.String()
	}
	fmt.Fprintf(&b, " %s supports the following commands:", e.Plugin)
	for _, cmd := range e.Available {
		b.WriteString("\n  - ")
		b.WriteString(cmd.Name)
		if cmd.Description != "" {
			b.WriteString(": ")
			b.WriteString(cmd.Description)
		}
	}
	return b.String()
}

// Unwrap returns ErrUnknownCommand so callers can use errors.Is for programmatic detection.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// Error implements the error interface.
func (e *UndefinedEnvVarError) Error() string {
	return fmt.Sprintf("Command '%s' referenced unset environment variable '$%s' in an argument", e.Command, e.Variable)
}

// Unwrap returns ErrUndefinedEnvVar so callers can use errors.Is for programmatic detection.
func (e *UndefinedEnvVarError) Unwrap() error { return ErrUndefinedEnvVar }
