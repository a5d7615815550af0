// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It holds a catalog of known failure kinds, each with Markdown remediation
// guidance rendered through glamour, and the ActionableError builder used to
// attach operation context and suggestions to errors surfaced by the CLI.
package issue
