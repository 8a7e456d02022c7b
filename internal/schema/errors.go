package schema

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel matched by every *SchemaError.
var ErrSchema = errors.New("schema error")

// Kind classifies a SchemaError.
type Kind string

const (
	KindMissingTable      Kind = "missing_table"
	KindDuplicateTable    Kind = "duplicate_table"
	KindMissingColumn     Kind = "missing_column"
	KindDuplicateColumn   Kind = "duplicate_column"
	KindInvalidName       Kind = "invalid_name"
	KindInvalidDefinition Kind = "invalid_definition"
)

// SchemaError reports a missing or duplicate table or column, or a
// definition that cannot be turned into DDL.
type SchemaError struct {
	Kind   Kind
	Table  string
	Column string
	Detail string
}

func (e *SchemaError) Error() string {
	var msg string
	switch e.Kind {
	case KindMissingTable:
		msg = fmt.Sprintf("table %q does not exist", e.Table)
	case KindDuplicateTable:
		msg = fmt.Sprintf("table %q already exists", e.Table)
	case KindMissingColumn:
		msg = fmt.Sprintf("column %q does not exist in table %q", e.Column, e.Table)
	case KindDuplicateColumn:
		msg = fmt.Sprintf("column %q already exists in table %q", e.Column, e.Table)
	case KindInvalidName:
		name := e.Table
		if e.Column != "" {
			name = e.Column
		}
		msg = fmt.Sprintf("invalid identifier %q", name)
	default:
		msg = fmt.Sprintf("invalid definition for table %q", e.Table)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// IsKind reports whether err is a *SchemaError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *SchemaError
	return errors.As(err, &se) && se.Kind == kind
}
