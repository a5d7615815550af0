// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"errors"
	"fmt"

	"meltano-cli/pkg/platform"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// PlatformSpecs holds the runtime layout of every supported platform.
var PlatformSpecs = map[platform.Name]Spec{
	platform.Linux:   {BinDir: "bin", LibDir: "lib", Interpreters: []string{"python", "python3"}},
	platform.Darwin:  {BinDir: "bin", LibDir: "lib", Interpreters: []string{"python", "python3"}},
	platform.Windows: {BinDir: "Scripts", LibDir: "Lib", Interpreters: []string{"python.exe"}},
}

type (
	// Spec is the directory layout of a runtime on one platform.
	Spec struct {
		BinDir string
		LibDir string
		// Interpreters lists candidate interpreter names in preference order.
		Interpreters []string
	}

	// UnsupportedPlatformError is returned when no Spec exists for a platform.
	UnsupportedPlatformError struct {
		Platform platform.Name
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("Platform %s is not supported.", e.Platform)
}

// Unwrap returns ErrUnsupportedPlatform so callers can use errors.Is for programmatic detection.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// SpecFor returns the runtime layout for p.
func SpecFor(p platform.Name) (Spec, error) {
	spec, ok := PlatformSpecs[platform.Normalize(string(p))]
	if !ok {
		return Spec{}, &UnsupportedPlatformError{Platform: p}
	}
	return spec, nil
}
