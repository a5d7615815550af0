// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Name
	}{
		{"Linux", Linux},
		{"Darwin", Darwin},
		{" Windows ", Windows},
		{"commodore64", "commodore64"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"con", true},
		{"NUL.exe", true},
		{"com9", true},
		{"lpt1.log", true},
		{"tap-mock", false},
		{"confile", false},
		{"com10", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsWindowsReservedName(tt.input); got != tt.expected {
			t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDetectSandboxFrom(t *testing.T) {
	t.Parallel()

	missing := func(string) error { return errors.New("missing") }
	present := func(string) error { return nil }
	noEnv := func(string) string { return "" }
	snapEnv := func(k string) string {
		if k == "SNAP_NAME" {
			return "meltano"
		}
		return ""
	}

	if got := detectSandboxFrom(noEnv, missing); got != SandboxNone {
		t.Errorf("no indicators: got %q", got)
	}
	if got := detectSandboxFrom(snapEnv, missing); got != SandboxSnap {
		t.Errorf("SNAP_NAME set: got %q", got)
	}
	if got := detectSandboxFrom(snapEnv, present); got != SandboxFlatpak {
		t.Errorf("flatpak should take precedence: got %q", got)
	}
}

func TestHostArgv(t *testing.T) {
	t.Parallel()

	argv := []string{"/p/bin/tap", "--about"}

	if got := HostArgv(SandboxNone, argv); !slices.Equal(got, argv) {
		t.Errorf("HostArgv(none) = %v", got)
	}
	want := []string{"flatpak-spawn", "--host", "/p/bin/tap", "--about"}
	if got := HostArgv(SandboxFlatpak, argv); !slices.Equal(got, want) {
		t.Errorf("HostArgv(flatpak) = %v, want %v", got, want)
	}
	if argv[0] != "/p/bin/tap" {
		t.Error("HostArgv mutated its input")
	}
}
