// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy shared by all stages. Stages wrap these with context using
// fmt.Errorf("...: %w", ...) so callers can test the category with errors.Is.
var (
	// ErrRead means an input file is missing, unreadable, or not valid
	// delimited text.
	ErrRead = errors.New("read error")

	// ErrSchemaMismatch means a declared source column is absent from the
	// input header.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrShapeMismatch means two tables do not share the same columns, or a
	// requested column does not exist.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrWrite means the output could not be created or fully written.
	ErrWrite = errors.New("write error")

	// ErrConfig means a schema configuration failed validation.
	ErrConfig = errors.New("invalid schema configuration")
)
