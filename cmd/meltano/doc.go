// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the Cobra command tree of the meltano CLI.
//
// Handlers receive an App, the composition root holding the configuration
// provider, the process launcher, the installer factory and the event
// tracker, so tests can drive every command without spawning processes.
package cmd
