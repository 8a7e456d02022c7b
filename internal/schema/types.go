package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ColumnType is the declared storage class of a column.
type ColumnType string

const (
	Integer ColumnType = "INTEGER"
	Real    ColumnType = "REAL"
	Text    ColumnType = "TEXT"
	Blob    ColumnType = "BLOB"

	// Boolean has no SQLite storage class of its own and is declared as
	// INTEGER (0/1).
	Boolean ColumnType = "BOOLEAN"
)

var columnTypes = []ColumnType{Integer, Real, Text, Blob, Boolean}

// ParseColumnType parses a type name case-insensitively.
func ParseColumnType(s string) (ColumnType, error) {
	t := ColumnType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown column type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported types.
func (t ColumnType) Valid() bool {
	for _, ct := range columnTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// SQL returns the type name used in DDL.
func (t ColumnType) SQL() string {
	if t == Boolean {
		return string(Integer)
	}
	return string(t)
}

// Column is a single column definition.
type Column struct {
	Name string
	Type ColumnType
}

// Col is shorthand for building column lists.
func Col(name string, typ ColumnType) Column {
	return Column{Name: name, Type: typ}
}

// Table is a named, ordered column list.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name can be used as a table or column name.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// Quote returns name as a quoted SQL identifier. Callers must have checked
// ValidIdent first; Quote does not escape.
func Quote(name string) string {
	return `"` + name + `"`
}
