// SPDX-License-Identifier: MPL-2.0

// Package project loads meltano.yml and serves plugin definitions, project
// variables and environment blocks to the invoker.
package project
