// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin ConfigDir without touching HOME or
// XDG_CONFIG_HOME.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
