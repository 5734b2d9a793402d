package memdb

import (
	"fmt"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
)

// ParseError reports SQL the interpreter could not make sense of.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "cannot parse query: " + e.Detail
}

// UnsupportedError reports SQL the interpreter understands but deliberately
// refuses: silently mis-evaluating OR, parentheses or GROUP BY would return
// wrong rows without anyone noticing.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported SQL feature: %s (the in-memory engine supports single-table SELECT with AND-only WHERE)", e.Feature)
}

// Unwrap lets callers match with errors.Is(err, apperrors.ErrUnsupportedFeature)
// without importing this package's concrete type.
func (e *UnsupportedError) Unwrap() error {
	return apperrors.ErrUnsupportedFeature
}

// UnknownColumnError reports a column reference that does not exist in the
// queried table. The orchestrator's retry policy keys off this type.
type UnknownColumnError struct {
	Column string
	Table  string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q in table %q", e.Column, e.Table)
}
