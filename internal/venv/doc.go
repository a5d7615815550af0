// SPDX-License-Identifier: MPL-2.0

// Package venv locates the isolated per-plugin runtimes that managed plugins
// are installed into.
//
// A runtime lives at <project>/.meltano/<namespace>/<name>/venv and has a
// platform-specific layout described by a Spec. The package only locates and
// validates runtimes; creating them is the installer's job.
package venv
