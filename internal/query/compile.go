package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/agora/internal/codec"
	"github.com/roach88/agora/internal/schema"
)

// Filter is a compiled WHERE clause. An empty SQL string means no filter.
type Filter struct {
	SQL  string
	Args []any
}

// Statement is a complete parameterized statement.
type Statement struct {
	SQL  string
	Args []any
}

// Compile checks every criteria column against columns, in criteria order,
// and builds the filter. The first unknown column aborts compilation with an
// *UnknownColumnError; no partial filter is returned.
func Compile(table string, c Criteria, columns []string) (Filter, error) {
	if err := c.Validate(); err != nil {
		return Filter{}, err
	}
	known := columnSet(columns)

	for _, eq := range c {
		if !known[eq.Column] {
			return Filter{}, &UnknownColumnError{Table: table, Column: eq.Column}
		}
	}

	if c.IsEmpty() {
		return Filter{}, nil
	}

	parts := make([]string, 0, len(c))
	args := make([]any, 0, len(c))
	for _, eq := range c {
		v, err := codec.Coerce(eq.Value)
		if err != nil {
			return Filter{}, fmt.Errorf("criteria %q: %w", eq.Column, err)
		}
		if v == nil {
			parts = append(parts, schema.Quote(eq.Column)+" IS NULL")
			continue
		}
		parts = append(parts, schema.Quote(eq.Column)+" = ?")
		args = append(args, v)
	}

	return Filter{SQL: strings.Join(parts, " AND "), Args: args}, nil
}

// Assignments is a compiled column list for INSERT or UPDATE SET.
type Assignments struct {
	Columns []string
	Args    []any
}

// CompileValues checks and coerces a write payload. Columns are emitted in
// sorted order for deterministic SQL.
func CompileValues(table string, values map[string]any, columns []string) (Assignments, error) {
	known := columnSet(columns)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := Assignments{
		Columns: make([]string, 0, len(keys)),
		Args:    make([]any, 0, len(keys)),
	}
	for _, k := range keys {
		if !known[k] {
			return Assignments{}, &UnknownColumnError{Table: table, Column: k}
		}
		v, err := codec.Coerce(values[k])
		if err != nil {
			return Assignments{}, fmt.Errorf("value %q: %w", k, err)
		}
		a.Columns = append(a.Columns, k)
		a.Args = append(a.Args, v)
	}
	return a, nil
}

func columnSet(columns []string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return set
}
