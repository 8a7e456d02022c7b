// Package query compiles equality criteria into parameterized SQLite
// statements.
//
// Criteria is an ordered list of column = value tests joined with AND. Order
// is significant: it is the order of the WHERE terms and of the positional
// arguments, which keeps generated SQL deterministic. Criteria is a slice
// rather than a map so that order is preserved by construction.
//
// The fragment is deliberately small:
//   - Equals only (no OR, ranges or LIKE)
//   - a nil value compiles to IS NULL
//   - every value is a ? parameter, never interpolated
//   - identifiers are validated against the table's column list first
//
// Anything richer is composed by callers from several calls.
//
// Every SELECT carries an explicit ORDER BY on rowid so results are stable
// across runs.
package query
