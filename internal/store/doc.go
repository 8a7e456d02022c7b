// Package store is the record CRUD engine over a single-file SQLite store.
//
// Every operation names a table and is checked against the schema catalog
// before any statement is built:
//   - unknown tables return a *schema.SchemaError (KindMissingTable)
//   - unknown columns return a *query.UnknownColumnError
//   - empty patches and empty criteria on Find/Update/Delete are rejected
//
// A rejected call never reaches the database and always pairs its error
// with the zero result (nil, false, 0, empty slice). Callers that treat
// those conditions as "no rows" can test the error with IsSoft.
//
// # Values and records
//
// Writes take Values (column → value). nil becomes NULL; slices, arrays,
// maps and structs are stored as canonical JSON text (package codec); other
// scalars are passed to the driver unchanged. Reads return *Record, which
// keeps the raw column values and decodes structured columns on request.
//
// Ordering is by rowid: FindAll and Paginate return the most recently
// inserted rows first.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - one open connection (SQLite has a single writer)
//
// Two drivers are registered: mattn/go-sqlite3 ("sqlite3", cgo) and
// modernc.org/sqlite ("sqlite", pure Go).
package store
