package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
)

// Statement labels for metrics and logs.
const (
	opInsert   = "insert"
	opFind     = "find"
	opFindAll  = "find_all"
	opUpdate   = "update"
	opDelete   = "delete"
	opCount    = "count"
	opPaginate = "paginate"
)

// Insert writes one row and returns its rowid.
//
// Every key of values must be a column of table; structured values are
// stored as canonical JSON text.
func (s *Store) Insert(ctx context.Context, table string, values Values) (int64, error) {
	cols, err := s.describe(ctx, opInsert, table)
	if err != nil {
		return 0, err
	}
	a, err := query.CompileValues(table, values, names(cols))
	if err != nil {
		return 0, s.reject(opInsert, table, err)
	}

	res, err := s.exec(ctx, opInsert, query.Insert(table, a))
	if err != nil {
		return 0, s.fault(opInsert, table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// Find returns the oldest row matching c, or ErrNotFound.
func (s *Store) Find(ctx context.Context, table string, c query.Criteria) (*Record, error) {
	if c.IsEmpty() {
		return nil, s.reject(opFind, table, ErrEmptyCriteria)
	}
	cols, f, err := s.filter(ctx, opFind, table, c)
	if err != nil {
		return nil, err
	}

	records, err := s.query(ctx, opFind, cols, query.SelectFirst(table, f))
	if err != nil {
		return nil, s.fault(opFind, table, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// FindAll returns every row matching c, newest first. Empty criteria
// return the whole table. The result is never nil.
func (s *Store) FindAll(ctx context.Context, table string, c query.Criteria) ([]*Record, error) {
	cols, f, err := s.filter(ctx, opFindAll, table, c)
	if err != nil {
		return []*Record{}, err
	}

	records, err := s.query(ctx, opFindAll, cols, query.Select(table, f, query.NewestFirst))
	if err != nil {
		return []*Record{}, s.fault(opFindAll, table, err)
	}
	return records, nil
}

// All returns every row of table, newest first.
func (s *Store) All(ctx context.Context, table string) ([]*Record, error) {
	return s.FindAll(ctx, table, nil)
}

// Update sets patch on every row matching c. It reports true when at least
// one row changed; no matching row is (false, nil).
func (s *Store) Update(ctx context.Context, table string, c query.Criteria, patch Values) (bool, error) {
	if len(patch) == 0 {
		return false, s.reject(opUpdate, table, ErrEmptyPatch)
	}
	if c.IsEmpty() {
		return false, s.reject(opUpdate, table, ErrEmptyCriteria)
	}
	cols, f, err := s.filter(ctx, opUpdate, table, c)
	if err != nil {
		return false, err
	}
	a, err := query.CompileValues(table, patch, names(cols))
	if err != nil {
		return false, s.reject(opUpdate, table, err)
	}

	res, err := s.exec(ctx, opUpdate, query.Update(table, a, f))
	if err != nil {
		return false, s.fault(opUpdate, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	return n > 0, nil
}

// Delete removes every row matching c and returns how many were removed.
func (s *Store) Delete(ctx context.Context, table string, c query.Criteria) (int64, error) {
	if c.IsEmpty() {
		return 0, s.reject(opDelete, table, ErrEmptyCriteria)
	}
	_, f, err := s.filter(ctx, opDelete, table, c)
	if err != nil {
		return 0, err
	}

	res, err := s.exec(ctx, opDelete, query.Delete(table, f))
	if err != nil {
		return 0, s.fault(opDelete, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return n, nil
}

// Count returns the number of rows matching c. An unknown table or column
// counts as zero; the guard error is still returned.
func (s *Store) Count(ctx context.Context, table string, c query.Criteria) (int64, error) {
	_, f, err := s.filter(ctx, opCount, table, c)
	if err != nil {
		return 0, err
	}

	st := query.Count(table, f)
	s.metrics.Statements.WithLabelValues(s.name, opCount).Inc()

	var n int64
	if err := s.q.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&n); err != nil {
		return 0, s.fault(opCount, table, err)
	}
	return n, nil
}

// Paginate returns up to limit rows, newest first, after skipping offset
// rows. An offset at or past the end of the table yields an empty page.
func (s *Store) Paginate(ctx context.Context, table string, limit, offset int) ([]*Record, error) {
	cols, err := s.describe(ctx, opPaginate, table)
	if err != nil {
		return []*Record{}, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*Record{}, nil
	}

	total, err := s.Count(ctx, table, nil)
	if err != nil {
		return []*Record{}, err
	}
	if int64(offset) >= total {
		return []*Record{}, nil
	}

	records, err := s.query(ctx, opPaginate, cols, query.Page(table, limit, offset))
	if err != nil {
		return []*Record{}, s.fault(opPaginate, table, err)
	}
	return records, nil
}

// CreateTable creates table with the given columns.
func (s *Store) CreateTable(ctx context.Context, table string, cols []schema.Column) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.catalog.CreateTable(ctx, table, cols)
}

// AddColumn appends col to table.
func (s *Store) AddColumn(ctx context.Context, table string, col schema.Column) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.catalog.AddColumn(ctx, table, col)
}

// DropColumn removes column from table.
func (s *Store) DropColumn(ctx context.Context, table, column string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.catalog.DropColumn(ctx, table, column)
}

// DropTable removes table.
func (s *Store) DropTable(ctx context.Context, table string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.catalog.DropTable(ctx, table)
}

// TableExists reports whether table is present.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.catalog.TableExists(ctx, table)
}

// Columns returns the column names of table.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.catalog.Columns(ctx, table)
}

// Tables lists the tables in the store.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.catalog.Tables(ctx)
}

func (s *Store) check() error {
	if s.q == nil {
		return ErrClosed
	}
	return nil
}

// describe resolves the table's columns. A missing table is a rejection.
func (s *Store) describe(ctx context.Context, op, table string) ([]schema.Column, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	cols, err := s.catalog.Describe(ctx, table)
	if err != nil {
		if schema.IsKind(err, schema.KindMissingTable) {
			return nil, s.reject(op, table, err)
		}
		return nil, s.fault(op, table, err)
	}
	return cols, nil
}

// filter resolves the table and compiles c against it.
func (s *Store) filter(ctx context.Context, op, table string, c query.Criteria) ([]schema.Column, query.Filter, error) {
	cols, err := s.describe(ctx, op, table)
	if err != nil {
		return nil, query.Filter{}, err
	}
	f, err := query.Compile(table, c, names(cols))
	if err != nil {
		return nil, query.Filter{}, s.reject(op, table, err)
	}
	return cols, f, nil
}

func (s *Store) exec(ctx context.Context, op string, st query.Statement) (sql.Result, error) {
	s.metrics.Statements.WithLabelValues(s.name, op).Inc()
	slog.Debug("exec", "store", s.name, "op", op, "sql", st.SQL)
	return s.q.ExecContext(ctx, st.SQL, st.Args...)
}

func (s *Store) query(ctx context.Context, op string, cols []schema.Column, st query.Statement) ([]*Record, error) {
	s.metrics.Statements.WithLabelValues(s.name, op).Inc()
	slog.Debug("query", "store", s.name, "op", op, "sql", st.SQL)

	rows, err := s.q.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[string]schema.ColumnType, len(cols))
	for _, c := range cols {
		types[c.Name] = c.Type
	}
	return scanRecords(rows, types)
}

// reject records a guard violation. No statement has been executed.
func (s *Store) reject(op, table string, err error) error {
	reason := rejectionReason(err)
	if reason == "" {
		reason = "other"
	}
	s.metrics.Rejections.WithLabelValues(s.name, op, reason).Inc()
	slog.Debug("operation rejected", "store", s.name, "op", op, "table", table, "reason", reason, "error", err)
	return err
}

func (s *Store) fault(op, table string, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		slog.Error("statement failed", "store", s.name, "op", op, "table", table, "error", err)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func names(cols []schema.Column) []string {
	return schema.Table{Columns: cols}.ColumnNames()
}
