// SPDX-License-Identifier: MPL-2.0

// Package invoker prepares and launches one plugin process.
//
// An Invoker moves through three states:
//
//	uninitialized --Prepare--> prepared --Cleanup--> torn_down
//
// Prepare resolves the runtime, resolves settings, composes the environment
// and writes any config file the plugin asked for. ExecArgs, Env and Invoke
// are only valid while prepared. Cleanup releases everything Prepare
// acquired, exactly once.
package invoker
