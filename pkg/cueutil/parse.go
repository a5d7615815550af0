// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult holds a decoded value and the unified CUE value it came from.
type ParseResult[T any] struct {
	Value *T

	// Unified is kept for callers that need defaults or metadata the Go
	// struct does not carry.
	Unified cue.Value
}

// ParseAndDecode validates CUE source data against the schemaPath definition
// of schema and decodes the result into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)
	name := options.displayName()

	if err := CheckFileSize(data, options.maxFileSize, name); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	root, err := schemaRoot(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	user := ctx.CompileBytes(data, cue.Filename(name))
	if user.Err() != nil {
		return nil, FormatError(user.Err(), name)
	}
	return unifyAndDecode[T](root, user, options)
}

// DecodeValue validates a Go value, typically a document decoded from YAML
// or JSON, against the schemaPath definition of schema and decodes the
// result into T.
func DecodeValue[T any](schema []byte, value any, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)
	name := options.displayName()

	ctx := cuecontext.New()
	root, err := schemaRoot(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	user := ctx.Encode(value)
	if user.Err() != nil {
		return nil, FormatError(user.Err(), name)
	}
	return unifyAndDecode[T](root, user, options)
}

func applyOptions(opts []Option) parseOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func schemaRoot(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	compiled := ctx.CompileBytes(schema)
	if compiled.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", compiled.Err())
	}
	root := compiled.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}
	return root, nil
}

func unifyAndDecode[T any](root, user cue.Value, options parseOptions) (*ParseResult[T], error) {
	name := options.displayName()
	unified := root.Unify(user)

	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, name)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, name)
	}
	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}
