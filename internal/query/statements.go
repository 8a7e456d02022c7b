package query

import (
	"strings"

	"github.com/roach88/agora/internal/schema"
)

// Order selects the rowid direction of a SELECT.
type Order int

const (
	// NewestFirst orders by insertion, most recent first.
	NewestFirst Order = iota
	// OldestFirst orders by insertion, oldest first.
	OldestFirst
)

func (o Order) sql() string {
	if o == OldestFirst {
		return "rowid ASC"
	}
	return "rowid DESC"
}

// RowIDColumn is the alias under which every SELECT returns the rowid.
const RowIDColumn = "_rowid"

func where(f Filter) string {
	if f.SQL == "" {
		return ""
	}
	return " WHERE " + f.SQL
}

func selectHead(table string) string {
	return "SELECT rowid AS " + RowIDColumn + ", * FROM " + schema.Quote(table)
}

// Select returns every row matching f in the given order.
func Select(table string, f Filter, order Order) Statement {
	return Statement{
		SQL:  selectHead(table) + where(f) + " ORDER BY " + order.sql(),
		Args: f.Args,
	}
}

// SelectFirst returns the oldest row matching f.
func SelectFirst(table string, f Filter) Statement {
	return Statement{
		SQL:  selectHead(table) + where(f) + " ORDER BY " + OldestFirst.sql() + " LIMIT 1",
		Args: f.Args,
	}
}

// Page returns limit rows, newest first, skipping offset rows.
func Page(table string, limit, offset int) Statement {
	return Statement{
		SQL:  selectHead(table) + " ORDER BY " + NewestFirst.sql() + " LIMIT ? OFFSET ?",
		Args: []any{limit, offset},
	}
}

// Count returns the number of rows matching f.
func Count(table string, f Filter) Statement {
	return Statement{
		SQL:  "SELECT COUNT(*) FROM " + schema.Quote(table) + where(f),
		Args: f.Args,
	}
}

// Insert writes one row. An empty assignment list inserts a row of NULLs.
func Insert(table string, a Assignments) Statement {
	if len(a.Columns) == 0 {
		return Statement{SQL: "INSERT INTO " + schema.Quote(table) + " DEFAULT VALUES"}
	}
	cols := make([]string, len(a.Columns))
	marks := make([]string, len(a.Columns))
	for i, c := range a.Columns {
		cols[i] = schema.Quote(c)
		marks[i] = "?"
	}
	return Statement{
		SQL: "INSERT INTO " + schema.Quote(table) +
			" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")",
		Args: a.Args,
	}
}

// Update sets the assigned columns on every row matching f. SET arguments
// precede filter arguments.
func Update(table string, a Assignments, f Filter) Statement {
	sets := make([]string, len(a.Columns))
	for i, c := range a.Columns {
		sets[i] = schema.Quote(c) + " = ?"
	}
	args := make([]any, 0, len(a.Args)+len(f.Args))
	args = append(args, a.Args...)
	args = append(args, f.Args...)
	return Statement{
		SQL:  "UPDATE " + schema.Quote(table) + " SET " + strings.Join(sets, ", ") + where(f),
		Args: args,
	}
}

// Delete removes every row matching f.
func Delete(table string, f Filter) Statement {
	return Statement{
		SQL:  "DELETE FROM " + schema.Quote(table) + where(f),
		Args: f.Args,
	}
}
