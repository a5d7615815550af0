// SPDX-License-Identifier: MPL-2.0

// Package settings resolves plugin settings from an ordered stack of layers
// and fans each resolved value out to its environment variable aliases.
//
// Layers, lowest to highest precedence:
//
//  1. declared defaults
//  2. project file plugin config
//  3. active environment block config
//  4. project dotenv file
//  5. ambient process environment
//  6. per-invocation overrides
//
// The last layer holding a value wins. Every alias of a setting carries the
// same formatted value.
package settings
