// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError_NonCUE(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "meltano.yml") != nil {
		t.Error("nil error must stay nil")
	}

	err := FormatError(errors.New("boom"), "meltano.yml")
	if err == nil || !strings.Contains(err.Error(), "meltano.yml") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("got %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"name"}, "name"},
		{[]string{"cli", "log_level"}, "cli.log_level"},
		{[]string{"plugins", "extractors", "0", "name"}, "plugins.extractors[0].name"},
		{[]string{"environments", "1", "config", "plugins", "loaders", "0"}, "environments[1].config.plugins.loaders[0]"},
		{[]string{"0"}, "0"},
		{[]string{"#Project", "plugins", "extractors", "0", "name"}, "plugins.extractors[0].name"},
		{[]string{"#Plugin", "settings", "0", "kind"}, "settings[0].kind"},
		{[]string{"#Config"}, ""},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "config.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}

	err := CheckFileSize(make([]byte, 101), 100, "config.cue")
	if err == nil {
		t.Fatal("expected error above limit")
	}
	for _, want := range []string{"config.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	withPath := &ValidationError{FilePath: "config.cue", CUEPath: "cli.log_level", Message: "invalid value"}
	if got, want := withPath.Error(), "config.cue: cli.log_level: invalid value"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	bare := &ValidationError{FilePath: "config.cue", Message: "syntax error"}
	if got, want := bare.Error(), "config.cue: syntax error"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
