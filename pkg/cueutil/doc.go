// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration against embedded CUE schemas.
//
// Both entry points follow the same flow:
//
//  1. Compile the embedded schema
//  2. Build the user value (CUE source or an already-decoded Go value) and unify
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed project_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.DecodeValue[rawProject](schemaBytes, doc, "#Project",
//	    cueutil.WithFilename("meltano.yml"))
package cueutil
