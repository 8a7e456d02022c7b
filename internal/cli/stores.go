package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/agora/internal/layout"
	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
	"github.com/roach88/agora/internal/store"
)

// openStore opens the named store of l under the configured data dir. A
// store whose file does not exist yet is reported instead of created;
// only init creates files.
func openStore(f *OutputFormatter, opts *RootOptions, l *layout.Layout, name string) (*store.Store, error) {
	path, err := l.Path(opts.Config.DataDir, name)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown store %q", name), err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("store %q has no file at %s (run agora init)", name, path), err)
	}

	storeOpts := append(opts.Config.StoreOptions(), store.WithName(name))
	s, err := store.Open(path, storeOpts...)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeOpen, fmt.Sprintf("failed to open store %q", name), err)
	}
	return s, nil
}

// loadLayoutOrFail loads the configured layout and reports failures.
func loadLayoutOrFail(f *OutputFormatter, opts *RootOptions) (*layout.Layout, error) {
	l, err := loadLayout(opts.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeLayout, "failed to load layout", err)
	}
	return l, nil
}

// failStore reports an error returned by a store operation.
func failStore(f *OutputFormatter, message string, err error) error {
	switch {
	case schema.IsKind(err, schema.KindMissingTable), errors.Is(err, query.ErrUnknownColumn),
		schema.IsKind(err, schema.KindMissingColumn):
		return f.Fail(ExitCommandError, ErrCodeNotFound, message, err)
	case errors.Is(err, schema.ErrSchema), errors.Is(err, query.ErrInvalidCriteria):
		return f.Fail(ExitCommandError, ErrCodeSchema, message, err)
	default:
		return f.Fail(ExitFailure, ErrCodeGeneric, message, err)
	}
}

// parseCriteria turns column=value arguments into criteria. Values are
// passed as text; SQLite column affinity converts them for comparison.
func parseCriteria(args []string) (query.Criteria, error) {
	var c query.Criteria
	for _, arg := range args {
		col, val, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("criterion %q is not column=value", arg)
		}
		c = c.And(col, val)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
