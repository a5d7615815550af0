// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{"operation only", &ActionableError{Operation: "load project"}, "failed to load project"},
		{
			"operation with resource",
			&ActionableError{Operation: "load project", Resource: "./meltano.yml"},
			"failed to load project: ./meltano.yml",
		},
		{
			"full context",
			&ActionableError{Operation: "invoke plugin", Resource: "tap-mock", Cause: errors.New("runtime not found")},
			"failed to invoke plugin: tap-mock: runtime not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	if err := WrapWithOperation(cause, "test"); !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "test"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("load project").
		WithResource("meltano.yml").
		WithSuggestions("Run from the project directory", "Set MELTANO_PROJECT_ROOT").
		Wrap(fmt.Errorf("stat: %w", inner)).
		Build()

	short := err.Format(false)
	for _, want := range []string{"failed to load project: meltano.yml", "• Run from the project directory", "• Set MELTANO_PROJECT_ROOT"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	long := err.Format(true)
	if !strings.Contains(long, "1. stat: no such file") || !strings.Contains(long, "2. no such file") {
		t.Errorf("Format(true) chain missing:\n%s", long)
	}
	if !err.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}

	ae := NewErrorContext().WithOperation("invoke plugin").WithIssue(PluginNotFoundId).Build()
	if ae.IssueId != PluginNotFoundId || ae.Issue() != Get(PluginNotFoundId) {
		t.Errorf("issue link lost: %+v", ae)
	}
	if NewActionableError("x").Issue() != nil {
		t.Error("Issue() should be nil without an id")
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	linked := NewErrorContext().WithOperation("resolve runtime").WithIssue(RuntimeNotFoundId).Build()
	outer := WrapWithOperation(fmt.Errorf("prepare: %w", linked), "invoke plugin")

	if got := Explain(outer); got != Get(RuntimeNotFoundId) {
		t.Errorf("Explain() = %v, want runtime-not-found entry", got)
	}
	if Explain(errors.New("plain")) != nil {
		t.Error("Explain(plain) should be nil")
	}
	if Explain(nil) != nil {
		t.Error("Explain(nil) should be nil")
	}
}
