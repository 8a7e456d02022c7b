// Package schema tracks which tables and columns exist in a SQLite store.
//
// The Catalog answers existence questions (TableExists, Columns) and owns
// every structural statement (CREATE TABLE, ALTER TABLE, DROP TABLE). Record
// operations consult it before building SQL so that unknown tables and
// columns are rejected without touching the store.
//
// Column lists are read once per table from PRAGMA table_info and cached.
// Any structural mutation issued through the Catalog invalidates the cached
// entry for that table. Tables are immutable in normal operation; AddColumn,
// DropColumn and DropTable are administrative.
package schema
