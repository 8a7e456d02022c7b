package store

import (
	"errors"

	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
)

var (
	// ErrNotFound is returned by Find when no row matches.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyPatch is returned by Update when there is nothing to set.
	ErrEmptyPatch = errors.New("empty patch")

	// ErrEmptyCriteria is returned by Find, Update and Delete when called
	// without criteria. Use FindAll or All to read a whole table.
	ErrEmptyCriteria = errors.New("empty criteria")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// IsSoft reports whether err is a guard condition whose zero result is the
// documented outcome (no row, nothing updated, zero count) rather than an
// engine fault.
func IsSoft(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmptyPatch),
		errors.Is(err, ErrEmptyCriteria),
		errors.Is(err, query.ErrUnknownColumn),
		errors.Is(err, query.ErrInvalidCriteria):
		return true
	default:
		return schema.IsKind(err, schema.KindMissingTable)
	}
}

// rejection reasons used as metric labels
const (
	reasonMissingTable    = "missing_table"
	reasonUnknownColumn   = "unknown_column"
	reasonEmptyPatch      = "empty_patch"
	reasonEmptyCriteria   = "empty_criteria"
	reasonInvalidCriteria = "invalid_criteria"
)

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, query.ErrUnknownColumn):
		return reasonUnknownColumn
	case errors.Is(err, query.ErrInvalidCriteria):
		return reasonInvalidCriteria
	case errors.Is(err, ErrEmptyPatch):
		return reasonEmptyPatch
	case errors.Is(err, ErrEmptyCriteria):
		return reasonEmptyCriteria
	case schema.IsKind(err, schema.KindMissingTable):
		return reasonMissingTable
	default:
		return ""
	}
}
