// SPDX-License-Identifier: MPL-2.0

// Package plugin defines plugin definitions as immutable value objects.
//
// A Definition names a plugin (kind, namespace, name), says how it is
// executed (managed runtime or explicit executable), declares its settings
// and its command aliases. Command aliases carry argument templates: an
// ordered list of arguments, each made of Literal and VarRef segments,
// parsed once from shell-like text and expanded against an explicit
// environment map at invocation time.
//
// Definitions are never mutated after loading. Use Clone or With to derive
// a modified copy.
package plugin
