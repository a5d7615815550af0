// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"slices"
	"sync"
)

// Sandbox type constants.
const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap indicates a Snap sandbox environment.
	SandboxSnap SandboxType = "snap"
)

// detectOnce caches the sandbox detection result for the lifetime of the process.
// detectSandboxFrom must not panic: sync.OnceValue re-panics on every call.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// SandboxType identifies the type of application sandbox, if any.
type SandboxType string

// DetectSandbox returns the sandbox the current process runs in.
// The result is cached after the first call.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// HostArgv rewrites argv so that it runs on the host when the CLI itself is
// sandboxed. Plugins live in the project directory on the host, so a
// sandboxed CLI must hop out before launching them. The input is not
// modified.
func HostArgv(st SandboxType, argv []string) []string {
	switch st {
	case SandboxFlatpak:
		return append([]string{"flatpak-spawn", "--host"}, argv...)
	case SandboxSnap:
		return append([]string{"snap", "run", "--shell"}, argv...)
	default:
		return slices.Clone(argv)
	}
}

// detectSandboxFrom performs sandbox detection using the provided lookup functions.
func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// Flatpak takes precedence; /.flatpak-info is present in every Flatpak sandbox.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}
	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
