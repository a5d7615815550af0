// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Name identifies an operating system by its runtime.GOOS spelling.
type Name string

// Current returns the platform the process is running on.
func Current() Name {
	return Name(runtime.GOOS)
}

// Normalize maps the spellings used by other tooling ("Linux", "Darwin",
// "Windows") onto the GOOS form. Unknown names are lower-cased and returned
// as-is so that callers can still report them.
func Normalize(s string) Name {
	return Name(strings.ToLower(strings.TrimSpace(s)))
}

// IsWindows reports whether n names Windows.
func (n Name) IsWindows() bool { return n == Windows }

// String returns the platform name.
func (n Name) String() string { return string(n) }
