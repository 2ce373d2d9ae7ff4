// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/kernlet/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/kernlet/config.cue on macOS, %APPDATA%\kernlet\config.cue
// on Windows), then overridden by a kernlet.toml in the working directory, then by
// KERNLET_* environment variables. The package provides type-safe access to console,
// filesystem, telemetry, REPL, and SSH settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
