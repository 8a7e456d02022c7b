package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/agora/internal/codec"
	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
)

// Values is a write payload: column name → value.
type Values map[string]any

// Record is one row as read from the store.
type Record struct {
	// RowID is the store-assigned row identifier.
	RowID int64

	columns []string
	values  map[string]any
}

// NewRecord builds a record from parallel column/value slices. Mostly
// useful in tests of code that consumes records.
func NewRecord(rowID int64, columns []string, values []any) *Record {
	r := &Record{RowID: rowID, columns: append([]string(nil), columns...), values: make(map[string]any, len(columns))}
	for i, c := range columns {
		if i < len(values) {
			r.values[c] = values[i]
		}
	}
	return r
}

// Columns returns the column names in table order.
func (r *Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Get returns the raw value of col and whether the column exists.
func (r *Record) Get(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// IsNull reports whether col is NULL or absent.
func (r *Record) IsNull(col string) bool {
	return r.values[col] == nil
}

// String returns col rendered as text. NULL and absent columns are "".
func (r *Record) String(col string) string {
	switch v := r.values[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns col as an integer. Text holding a decimal integer is
// accepted because the original stores wrote numbers as text.
func (r *Record) Int64(col string) (int64, bool) {
	switch v := r.values[col].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Float64 returns col as a real number.
func (r *Record) Float64(col string) (float64, bool) {
	switch v := r.values[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns col as a boolean (INTEGER 0/1).
func (r *Record) Bool(col string) (bool, bool) {
	n, ok := r.Int64(col)
	return n != 0, ok
}

// Bytes returns col as raw bytes.
func (r *Record) Bytes(col string) []byte {
	switch v := r.values[col].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Decode parses a structured column (canonical JSON text) into dst.
func (r *Record) Decode(col string, dst any) error {
	v, ok := r.values[col]
	if !ok {
		return fmt.Errorf("decode %q: no such column", col)
	}
	if v == nil {
		return fmt.Errorf("decode %q: column is NULL", col)
	}
	if err := codec.Decode(r.String(col), dst); err != nil {
		return fmt.Errorf("decode %q: %w", col, err)
	}
	return nil
}

// Map returns a copy of the column values.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON renders the record as an object of its columns.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// scanRecords reads every row. The first result column is the rowid alias
// emitted by the query package. Text columns come back as string even when
// the driver hands over []byte; BLOB columns stay []byte.
func scanRecords(rows *sql.Rows, types map[string]schema.ColumnType) ([]*Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	if len(cols) == 0 || cols[0] != query.RowIDColumn {
		return nil, fmt.Errorf("read columns: missing %s column", query.RowIDColumn)
	}

	records := []*Record{}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowID, _ := raw[0].(int64)
		rec := &Record{
			RowID:   rowID,
			columns: append([]string(nil), cols[1:]...),
			values:  make(map[string]any, len(cols)-1),
		}
		for i, name := range cols[1:] {
			rec.values[name] = normalize(raw[i+1], types[name])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

func normalize(v any, t schema.ColumnType) any {
	if b, ok := v.([]byte); ok && t != schema.Blob {
		return string(b)
	}
	return v
}
