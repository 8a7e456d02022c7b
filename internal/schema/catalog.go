package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Querier is the subset of *sql.DB and *sql.Tx used by the catalog.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Catalog discovers and mutates the tables of one store.
//
// Thread-safety: the column cache is guarded by a mutex and may be shared
// between a Catalog and the copies returned by WithQuerier.
type Catalog struct {
	q     Querier
	cache *columnCache
}

type columnCache struct {
	mu     sync.RWMutex
	tables map[string][]Column
}

// NewCatalog creates a catalog that issues statements through q.
func NewCatalog(q Querier) *Catalog {
	return &Catalog{
		q:     q,
		cache: &columnCache{tables: make(map[string][]Column)},
	}
}

// WithQuerier returns a catalog sharing c's cache but executing through q.
// Used to keep catalog lookups on the same connection as a transaction.
func (c *Catalog) WithQuerier(q Querier) *Catalog {
	return &Catalog{q: q, cache: c.cache}
}

// Invalidate drops any cached column list for table.
func (c *Catalog) Invalidate(table string) {
	c.cache.mu.Lock()
	delete(c.cache.tables, cacheKey(table))
	c.cache.mu.Unlock()
}

// Reset drops every cached column list.
func (c *Catalog) Reset() {
	c.cache.mu.Lock()
	c.cache.tables = make(map[string][]Column)
	c.cache.mu.Unlock()
}

func (c *Catalog) cached(table string) ([]Column, bool) {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()
	cols, ok := c.cache.tables[cacheKey(table)]
	return cols, ok
}

// SQLite folds ASCII case in table names; identifiers are ASCII-only.
func cacheKey(table string) string {
	return strings.ToLower(table)
}

// TableExists reports whether table is present, ignoring case the way
// SQLite does. A missing table is not an error.
func (c *Catalog) TableExists(ctx context.Context, table string) (bool, error) {
	if !ValidIdent(table) {
		return false, nil
	}
	if _, ok := c.cached(table); ok {
		return true, nil
	}

	var exists int
	err := c.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE)",
		table,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("table exists %q: %w", table, err)
	}
	return exists == 1, nil
}

// Describe returns the column definitions of table in declaration order.
// Returns a *SchemaError of KindMissingTable if the table does not exist.
func (c *Catalog) Describe(ctx context.Context, table string) ([]Column, error) {
	if !ValidIdent(table) {
		return nil, &SchemaError{Kind: KindMissingTable, Table: table}
	}
	if cols, ok := c.cached(table); ok {
		return append([]Column(nil), cols...), nil
	}

	rows, err := c.q.QueryContext(ctx, "PRAGMA table_info("+Quote(table)+")")
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("describe %q: %w", table, err)
		}
		ct, err := ParseColumnType(typ)
		if err != nil {
			// Tables created outside the catalog may use any declared type.
			ct = ColumnType(strings.ToUpper(typ))
		}
		cols = append(cols, Column{Name: name, Type: ct})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %q: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, &SchemaError{Kind: KindMissingTable, Table: table}
	}

	c.cache.mu.Lock()
	c.cache.tables[cacheKey(table)] = cols
	c.cache.mu.Unlock()

	return append([]Column(nil), cols...), nil
}

// Columns returns the column names of table in declaration order.
func (c *Catalog) Columns(ctx context.Context, table string) ([]string, error) {
	cols, err := c.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	return Table{Name: table, Columns: cols}.ColumnNames(), nil
}

// Tables lists user tables in name order.
func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// CreateTable issues exactly one CREATE TABLE statement. Creating a table
// that already exists returns KindDuplicateTable and leaves it untouched.
func (c *Catalog) CreateTable(ctx context.Context, table string, cols []Column) error {
	if err := validateDefinition(table, cols); err != nil {
		return err
	}

	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		slog.Warn("table already exists", "table", table)
		return &SchemaError{Kind: KindDuplicateTable, Table: table}
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = Quote(col.Name) + " " + col.Type.SQL()
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", Quote(table), strings.Join(defs, ", "))
	if _, err := c.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	c.Invalidate(table)

	slog.Info("table created", "table", table, "columns", len(cols))
	return nil
}

// AddColumn appends col to an existing table.
func (c *Catalog) AddColumn(ctx context.Context, table string, col Column) error {
	if !ValidIdent(col.Name) {
		return &SchemaError{Kind: KindInvalidName, Table: table, Column: col.Name}
	}
	if !col.Type.Valid() {
		return &SchemaError{Kind: KindInvalidDefinition, Table: table, Detail: fmt.Sprintf("column %q has type %q", col.Name, col.Type)}
	}

	names, err := c.Columns(ctx, table)
	if err != nil {
		return err
	}
	if contains(names, col.Name) {
		return &SchemaError{Kind: KindDuplicateColumn, Table: table, Column: col.Name}
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", Quote(table), Quote(col.Name), col.Type.SQL())
	if _, err := c.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %q to %q: %w", col.Name, table, err)
	}
	c.Invalidate(table)

	slog.Info("column added", "table", table, "column", col.Name)
	return nil
}

// DropColumn removes column from an existing table.
func (c *Catalog) DropColumn(ctx context.Context, table, column string) error {
	names, err := c.Columns(ctx, table)
	if err != nil {
		return err
	}
	if !contains(names, column) {
		return &SchemaError{Kind: KindMissingColumn, Table: table, Column: column}
	}

	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", Quote(table), Quote(column))
	if _, err := c.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop column %q from %q: %w", column, table, err)
	}
	c.Invalidate(table)

	slog.Info("column dropped", "table", table, "column", column)
	return nil
}

// DropTable removes an existing table and all of its rows.
func (c *Catalog) DropTable(ctx context.Context, table string) error {
	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return &SchemaError{Kind: KindMissingTable, Table: table}
	}

	if _, err := c.q.ExecContext(ctx, "DROP TABLE "+Quote(table)); err != nil {
		return fmt.Errorf("drop table %q: %w", table, err)
	}
	c.Invalidate(table)

	slog.Info("table dropped", "table", table)
	return nil
}

func validateDefinition(table string, cols []Column) error {
	if !ValidIdent(table) {
		return &SchemaError{Kind: KindInvalidName, Table: table}
	}
	if len(cols) == 0 {
		return &SchemaError{Kind: KindInvalidDefinition, Table: table, Detail: "no columns"}
	}
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if !ValidIdent(col.Name) {
			return &SchemaError{Kind: KindInvalidName, Table: table, Column: col.Name}
		}
		if !col.Type.Valid() {
			return &SchemaError{Kind: KindInvalidDefinition, Table: table, Detail: fmt.Sprintf("column %q has type %q", col.Name, col.Type)}
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return &SchemaError{Kind: KindDuplicateColumn, Table: table, Column: col.Name}
		}
		seen[key] = true
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
