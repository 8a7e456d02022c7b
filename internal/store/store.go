package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/agora/internal/schema"
)

// Store is an open handle on one SQLite file.
//
// Lifecycle: Open → use → Close. Operations on a closed store fail with
// ErrClosed. The handle is shared process-wide; it holds a single
// connection, so statements from different goroutines are serialized by
// database/sql rather than by the store.
type Store struct {
	name    string
	path    string
	db      *sql.DB
	q       schema.Querier
	catalog *schema.Catalog
	metrics *Metrics
	inTx    bool
}

// Option configures Open.
type Option func(*options)

type options struct {
	driver  string
	name    string
	metrics *Metrics
}

// WithDriver selects the SQLite driver (DriverCGO or DriverPureGo).
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithName sets the store label used in logs and metrics. Defaults to the
// file name without extension.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMetrics records statement and rejection counts in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Open creates or opens the SQLite file at path and applies pragmas.
// Use ":memory:" for a private in-memory store.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{driver: DefaultDriver}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkDriver(o.driver); err != nil {
		return nil, err
	}
	if o.name == "" {
		o.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}

	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	slog.Info("store opened", "store", o.name, "path", path, "driver", o.driver)

	return &Store{
		name:    o.name,
		path:    path,
		db:      db,
		q:       db,
		catalog: schema.NewCatalog(db),
		metrics: o.metrics,
	}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.inTx {
		return fmt.Errorf("close: called inside a transaction")
	}
	err := s.db.Close()
	s.db = nil
	s.q = nil
	slog.Info("store closed", "store", s.name)
	return err
}

// Name returns the store label.
func (s *Store) Name() string { return s.name }

// Path returns the file path the store was opened with.
func (s *Store) Path() string { return s.path }

// DB returns the underlying sql.DB.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB { return s.db }

// Schema returns the catalog bound to this store (or transaction).
func (s *Store) Schema() *schema.Catalog { return s.catalog }

// Metrics returns the collectors the store reports to.
func (s *Store) Metrics() *Metrics { return s.metrics }

// WithTx runs fn inside a transaction. fn receives a Store whose
// operations all execute on the transaction; the transaction commits if fn
// returns nil and rolls back otherwise. Calling WithTx on a transactional
// Store joins the existing transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return ErrClosed
	}
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	txStore := &Store{
		name:    s.name,
		path:    s.path,
		db:      s.db,
		q:       tx,
		catalog: s.catalog.WithQuerier(tx),
		metrics: s.metrics,
		inTx:    true,
	}

	if err := fn(txStore); err != nil {
		// Structural changes made inside the transaction are gone.
		s.catalog.Reset()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.catalog.Reset()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
