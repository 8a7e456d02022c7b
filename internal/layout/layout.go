package layout

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/agora/internal/schema"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed forum.cue
var forumSource []byte

// Layout is an ordered set of store declarations.
type Layout struct {
	Stores []Store
}

// Store declares one SQLite file and its tables.
type Store struct {
	Name   string
	File   string
	Tables []schema.Table
}

// Table returns the declaration of the named table.
func (s Store) Table(name string) (schema.Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return schema.Table{}, false
}

// Store returns the declaration of the named store.
func (l *Layout) Store(name string) (Store, bool) {
	for _, s := range l.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return Store{}, false
}

// Path returns the file path of the named store under dataDir.
func (l *Layout) Path(dataDir, name string) (string, error) {
	s, ok := l.Store(name)
	if !ok {
		return "", fmt.Errorf("unknown store %q", name)
	}
	return filepath.Join(dataDir, s.File), nil
}

// Names returns the store names in declaration order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.Stores))
	for i, s := range l.Stores {
		names[i] = s.Name
	}
	return names
}

// CompileError reports an invalid layout declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the built-in forum layout.
func Default() (*Layout, error) {
	return Parse("forum.cue", forumSource)
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(path, src)
}

// Parse compiles CUE source, checks it against the layout schema and
// returns the declared stores in declaration order.
func Parse(filename string, src []byte) (*Layout, error) {
	ctx := cuecontext.New()

	base := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := base.Err(); err != nil {
		return nil, fmt.Errorf("layout schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = base.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	storesVal := v.LookupPath(cue.ParsePath("stores"))
	if !storesVal.Exists() {
		return nil, &CompileError{Field: "stores", Message: "stores is required", Pos: v.Pos()}
	}

	iter, err := storesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	l := &Layout{}
	files := make(map[string]string)
	for iter.Next() {
		if !schema.ValidIdent(iter.Label()) {
			return nil, &CompileError{
				Field:   "stores",
				Message: fmt.Sprintf("invalid store name %q", iter.Label()),
				Pos:     iter.Value().Pos(),
			}
		}
		s, err := compileStore(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		if other, dup := files[s.File]; dup {
			return nil, &CompileError{
				Field:   "stores." + s.Name + ".file",
				Message: fmt.Sprintf("file %q is already used by store %q", s.File, other),
				Pos:     iter.Value().Pos(),
			}
		}
		files[s.File] = s.Name
		l.Stores = append(l.Stores, s)
	}

	if len(l.Stores) == 0 {
		return nil, &CompileError{Field: "stores", Message: "at least one store is required", Pos: storesVal.Pos()}
	}
	return l, nil
}

func compileStore(name string, v cue.Value) (Store, error) {
	s := Store{Name: name}

	file, err := v.LookupPath(cue.ParsePath("file")).String()
	if err != nil {
		return Store{}, formatCUEError(err)
	}
	s.File = file

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	iter, err := tablesVal.Fields()
	if err != nil {
		return Store{}, formatCUEError(err)
	}
	for iter.Next() {
		table := schema.Table{Name: iter.Label()}
		if !schema.ValidIdent(table.Name) {
			return Store{}, &CompileError{
				Field:   fmt.Sprintf("stores.%s.tables", name),
				Message: fmt.Sprintf("invalid table name %q", table.Name),
				Pos:     iter.Value().Pos(),
			}
		}

		colIter, err := iter.Value().Fields()
		if err != nil {
			return Store{}, formatCUEError(err)
		}
		for colIter.Next() {
			if !schema.ValidIdent(colIter.Label()) {
				return Store{}, &CompileError{
					Field:   fmt.Sprintf("stores.%s.tables.%s", name, table.Name),
					Message: fmt.Sprintf("invalid column name %q", colIter.Label()),
					Pos:     colIter.Value().Pos(),
				}
			}
			typ, err := colIter.Value().String()
			if err != nil {
				return Store{}, formatCUEError(err)
			}
			ct, err := schema.ParseColumnType(typ)
			if err != nil {
				return Store{}, &CompileError{
					Field:   fmt.Sprintf("stores.%s.tables.%s.%s", name, table.Name, colIter.Label()),
					Message: err.Error(),
					Pos:     colIter.Value().Pos(),
				}
			}
			table.Columns = append(table.Columns, schema.Col(colIter.Label(), ct))
		}

		if len(table.Columns) == 0 {
			return Store{}, &CompileError{
				Field:   fmt.Sprintf("stores.%s.tables.%s", name, table.Name),
				Message: "table has no columns",
				Pos:     iter.Value().Pos(),
			}
		}
		s.Tables = append(s.Tables, table)
	}

	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
