// SPDX-License-Identifier: MPL-2.0

// Package config loads benchsweep settings through Viper.
//
// Defaults reproduce the stock sweep scripts: the nine-benchmark table, the
// stat, baseline, size and timing presets, and a clang/Ninja Debug build. A
// single file may override them: the --config path, benchsweep.cue in the
// working directory, config.cue in ConfigDir, or benchsweep.toml in the
// working directory. Files are validated against the embedded CUE schema
// (config_schema.cue) before merging. BENCHSWEEP_* environment variables
// override individual keys.
package config
