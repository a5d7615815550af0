// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It names the operating systems plugin runtimes are laid out for, detects
// the current one (with an override for tests), rejects directory names
// Windows cannot create, and wraps process argv when the CLI itself runs
// inside a Flatpak or Snap sandbox.
package platform
