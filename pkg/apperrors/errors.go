// Package apperrors defines the error taxonomy shared across klinika-engine.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTablesResolved indicates the planner could not resolve any table
	// for a question. Callers should ask the user to clarify.
	ErrNoTablesResolved = errors.New("no tables resolved for question")

	// ErrSchemaNotLoaded indicates no schema snapshot has been published yet.
	ErrSchemaNotLoaded = errors.New("schema knowledge not loaded")

	// ErrEmptyGeneration indicates the generation collaborator returned no
	// usable SQL.
	ErrEmptyGeneration = errors.New("generation returned no SQL")
)

// Schema load failure reasons.
const (
	SchemaReasonMalformed      = "malformed_descriptor"
	SchemaReasonDuplicateTable = "duplicate_table"
	SchemaReasonUnknownTable   = "fk_unknown_table"
	SchemaReasonUnknownColumn  = "fk_unknown_column"
)

// SchemaLoadError reports why a schema descriptor could not be loaded.
// Loading is all-or-nothing: when this error is returned, no model was
// published and any previous snapshot remains active.
type SchemaLoadError struct {
	Reason string // one of the SchemaReason* constants
	Detail string // offending table/column or parse failure detail
	Err    error  // underlying error, if any
}

func (e *SchemaLoadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("schema load failed (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("schema load failed (%s)", e.Reason)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// IsSchemaLoadError reports whether err is (or wraps) a SchemaLoadError.
func IsSchemaLoadError(err error) bool {
	var sle *SchemaLoadError
	return errors.As(err, &sle)
}
