package query

import (
	"errors"
	"fmt"
)

// ErrInvalidCriteria is returned for criteria that name a column twice or
// use an empty column name.
var ErrInvalidCriteria = errors.New("invalid criteria")

// Equals is a single column = value test.
type Equals struct {
	Column string
	Value  any
}

// Criteria is an ordered conjunction of Equals tests. The zero value
// matches every row.
type Criteria []Equals

// Where starts a criteria list.
//
// Example:
//
//	query.Where("post_id", "p1").And("hashtag_text", "go")
func Where(column string, value any) Criteria {
	return Criteria{{Column: column, Value: value}}
}

// And returns a copy of c with one more test appended.
func (c Criteria) And(column string, value any) Criteria {
	out := make(Criteria, len(c), len(c)+1)
	copy(out, c)
	return append(out, Equals{Column: column, Value: value})
}

// IsEmpty reports whether c has no tests.
func (c Criteria) IsEmpty() bool {
	return len(c) == 0
}

// Columns returns the referenced columns in order.
func (c Criteria) Columns() []string {
	cols := make([]string, len(c))
	for i, eq := range c {
		cols[i] = eq.Column
	}
	return cols
}

// Validate rejects empty column names and columns named more than once.
func (c Criteria) Validate() error {
	seen := make(map[string]bool, len(c))
	for _, eq := range c {
		if eq.Column == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidCriteria)
		}
		if seen[eq.Column] {
			return fmt.Errorf("%w: column %q named twice", ErrInvalidCriteria, eq.Column)
		}
		seen[eq.Column] = true
	}
	return nil
}

// ErrUnknownColumn is the sentinel matched by every *UnknownColumnError.
var ErrUnknownColumn = errors.New("unknown column")

// UnknownColumnError identifies the first column that is not declared by
// the table.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q in table %q", e.Column, e.Table)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }
