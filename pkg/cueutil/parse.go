// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/load"
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go struct.
	Value *T

	// Unified is the unified CUE value, available for advanced use cases
	// such as extracting additional metadata or performing custom validation.
	Unified cue.Value
}

// ParseAndDecode performs the 3-step CUE parsing flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// Parameters:
//   - schema: The embedded CUE schema bytes (from //go:embed)
//   - data: The user-provided CUE file bytes
//   - schemaPath: The path to the root definition (e.g., "#Package", "#Config")
//   - opts: Optional configuration
//
// Returns:
//   - *ParseResult[T] containing the decoded struct and unified CUE value
//   - error with formatted path information if parsing fails
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	// Determine filename for error messages
	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	// Early file size check before any evaluation
	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	var out *ParseResult[T]
	err := Locked(func(ctx *cue.Context) error {
		// Step 1: Compile the schema
		schemaValue := ctx.CompileBytes(schema)
		if schemaValue.Err() != nil {
			return fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
		}

		// Step 2: Compile the user data
		userValue := ctx.CompileBytes(data, cue.Filename(filename))
		if userValue.Err() != nil {
			return FormatError(userValue.Err(), filename)
		}

		// Look up the root definition in the schema
		schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
		if schemaRoot.Err() != nil {
			return fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
		}

		// Unify user data with schema
		unified := schemaRoot.Unify(userValue)

		// Step 3: Validate
		if options.concrete {
			if err := unified.Validate(cue.Concrete(true)); err != nil {
				return FormatError(err, filename)
			}
		} else {
			if err := unified.Validate(); err != nil {
				return FormatError(err, filename)
			}
		}

		// Decode into struct
		var result T
		if err := unified.Decode(&result); err != nil {
			return FormatError(err, filename)
		}

		out = &ParseResult[T]{
			Value:   &result,
			Unified: unified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseAndDecodeString is a convenience wrapper that accepts schema as string.
// Useful when the schema is embedded as a string constant rather than bytes.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

// BuildFile builds a user CUE file with optional @tag injection (see
// WithTags) and hands the resulting value to visit while still holding
// the evaluation lock. The file contents are passed in as data so the
// caller performs I/O outside the lock; path anchors relative imports
// and error messages.
func BuildFile(path string, data []byte, visit func(ctx *cue.Context, v cue.Value) error, opts ...Option) error {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckFileSize(data, options.maxFileSize, path); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	return Locked(func(ctx *cue.Context) error {
		cfg := &load.Config{
			Dir:     filepath.Dir(abs),
			Tags:    options.tags,
			Overlay: map[string]load.Source{abs: load.FromBytes(data)},
		}
		insts := load.Instances([]string{abs}, cfg)
		if len(insts) == 0 {
			return fmt.Errorf("%s: no CUE instance produced", path)
		}
		if insts[0].Err != nil {
			return FormatError(insts[0].Err, path)
		}
		value := ctx.BuildInstance(insts[0])
		if value.Err() != nil {
			return FormatError(value.Err(), path)
		}
		return visit(ctx, value)
	})
}
