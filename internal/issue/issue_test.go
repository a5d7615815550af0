// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func allIds() []Id {
	return []Id{
		ProjectNotFoundId,
		ProjectParseErrorId,
		PluginNotFoundId,
		UnknownCommandId,
		UndefinedVariableId,
		RuntimeNotFoundId,
		UnsupportedPlatformId,
		SettingsConfigErrorId,
		ConfigLoadFailedId,
		InstallFailedId,
		ExecutableNotFoundId,
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ProjectNotFoundId, "No Meltano project found"},
		{ProjectParseErrorId, "Failed to parse meltano.yml"},
		{PluginNotFoundId, "Plugin not found"},
		{UnknownCommandId, "--list-commands"},
		{UndefinedVariableId, "Undefined environment variable"},
		{RuntimeNotFoundId, "--install"},
		{UnsupportedPlatformId, "Platform not supported"},
		{SettingsConfigErrorId, "--dump config"},
		{ConfigLoadFailedId, "config.cue"},
		{InstallFailedId, "installation failed"},
		{ExecutableNotFoundId, "could not be started"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()
			issue := Get(tt.id)
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() does not contain %q", tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(allIds()) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds()))
	}
	for i, issue := range values {
		if issue.Id() != allIds()[i] {
			t.Errorf("Values()[%d] = %d, want ordering by id", i, issue.Id())
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	t.Parallel()

	issue := Get(ProjectNotFoundId)
	links := issue.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "modified"
	if issue.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
	if issue.ExtLinks() != nil {
		t.Errorf("ExtLinks() = %v, want nil", issue.ExtLinks())
	}
}

// Tests below replace the package-level renderer and must not run in parallel.

func stubRender(t *testing.T) {
	t.Helper()
	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, _ string) (string, error) { return in, nil }
}

func TestIssue_Render(t *testing.T) {
	stubRender(t)

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	out, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"See also", "<https://docs.example.com>", "<https://external.example.com>"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in %q", want, out)
		}
	}

	out, err = (&Issue{id: Id(9998), mdMsg: "# Test"}).Render("")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	stubRender(t)

	for _, issue := range Values() {
		out, err := issue.Render("notty")
		if err != nil || out == "" {
			t.Errorf("issue %d: %q, %v", issue.Id(), out, err)
		}
	}
}

func TestIssue_RenderGlamour(t *testing.T) {
	out, err := Get(PluginNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Plugin not found") {
		t.Errorf("rendered output = %q", out)
	}
}
