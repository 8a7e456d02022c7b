package store

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// DefaultDriver is used when no driver option is given.
const DefaultDriver = DriverCGO

// ValidDriver reports whether name is a registered SQLite driver.
func ValidDriver(name string) bool {
	return name == DriverCGO || name == DriverPureGo
}

func checkDriver(name string) error {
	if !ValidDriver(name) {
		return fmt.Errorf("unknown sqlite driver %q (want %q or %q)", name, DriverCGO, DriverPureGo)
	}
	return nil
}
