// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"meltano-cli/pkg/platform"
)

const (
	// StateDir is the per-project directory holding runtimes and run files.
	StateDir = ".meltano"

	venvDirName = "venv"
)

// ErrRuntimeNotFound is the sentinel error wrapped by RuntimeNotFoundError.
var ErrRuntimeNotFound = errors.New("runtime not found")

type (
	// Resolver maps (namespace, name) pairs to runtimes inside one project.
	Resolver struct {
		projectRoot string
		platform    platform.Name
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// RuntimeNotFoundError is returned by Resolve when the runtime directory
	// does not exist yet. It is recoverable: install, then resolve again.
	RuntimeNotFoundError struct {
		Namespace string
		Name      string
		Path      string
	}

	// InvalidNameError reports a namespace or name that cannot be used as a
	// path segment.
	InvalidNameError struct {
		Value  string
		Reason string
	}
)

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid runtime name")

// Error implements the error interface.
func (e *RuntimeNotFoundError) Error() string {
	return fmt.Sprintf("runtime for %s/%s not found at %s", e.Namespace, e.Name, e.Path)
}

// Unwrap returns ErrRuntimeNotFound so callers can use errors.Is for programmatic detection.
func (e *RuntimeNotFoundError) Unwrap() error { return ErrRuntimeNotFound }

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid runtime name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidName so callers can use errors.Is for programmatic detection.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Name) Option {
	return func(r *Resolver) { r.platform = platform.Normalize(string(p)) }
}

// NewResolver returns a resolver for runtimes under projectRoot.
func NewResolver(projectRoot string, opts ...Option) *Resolver {
	r := &Resolver{projectRoot: projectRoot, platform: platform.Current()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Platform returns the platform the resolver lays runtimes out for.
func (r *Resolver) Platform() platform.Name { return r.platform }

// Root computes the runtime location for (namespace, name) without touching
// the filesystem.
func (r *Resolver) Root(namespace, name string) (*VirtualEnv, error) {
	spec, err := SpecFor(r.platform)
	if err != nil {
		return nil, err
	}
	for _, seg := range []string{namespace, name} {
		if err := r.validateSegment(seg); err != nil {
			return nil, err
		}
	}
	return &VirtualEnv{
		root:     filepath.Join(r.projectRoot, StateDir, namespace, name, venvDirName),
		spec:     spec,
		platform: r.platform,
	}, nil
}

// Resolve is Root plus a check that the runtime has been materialized.
func (r *Resolver) Resolve(namespace, name string) (*VirtualEnv, error) {
	env, err := r.Root(namespace, name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(env.root)
	if err != nil || !info.IsDir() {
		return nil, &RuntimeNotFoundError{Namespace: namespace, Name: name, Path: env.root}
	}
	return env, nil
}

func (r *Resolver) validateSegment(seg string) error {
	switch {
	case strings.TrimSpace(seg) == "":
		return &InvalidNameError{Value: seg, Reason: "must not be empty"}
	case seg == "." || seg == "..":
		return &InvalidNameError{Value: seg, Reason: "must not be a relative path element"}
	case strings.ContainsAny(seg, `/\`):
		return &InvalidNameError{Value: seg, Reason: "must not contain path separators"}
	case r.platform.IsWindows() && platform.IsWindowsReservedName(seg):
		return &InvalidNameError{Value: seg, Reason: "is a reserved device name on Windows"}
	}
	return nil
}
