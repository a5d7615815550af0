// SPDX-License-Identifier: MPL-2.0

// Package config handles CLI configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/meltano/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/meltano/config.cue on macOS, %APPDATA%\meltano\config.cue
// on Windows), validated against the embedded config_schema.cue, and can be overridden
// per key through MELTANO_-prefixed environment variables (ui.verbose becomes
// MELTANO_UI_VERBOSE).
package config
