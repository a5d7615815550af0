// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory in tests, since
// os.UserHomeDir ignores HOME on some CI platforms.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride points ConfigDir at dir until Reset is called.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
