package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/agora/internal/schema"
	"github.com/roach88/agora/internal/store"
)

// RowsOptions holds flags for the rows command.
type RowsOptions struct {
	*RootOptions
	Limit  int
	Offset int
}

type rowsResult struct {
	Store  string          `json:"store"`
	Table  string          `json:"table"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Total  int64           `json:"total"`
	Rows   []*store.Record `json:"rows"`
	types  map[string]schema.ColumnType
}

func (r rowsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s: %d of %d rows from offset %d", r.Store, r.Table, len(r.Rows), r.Total, r.Offset)
	for _, rec := range r.Rows {
		fmt.Fprintf(&b, "\n#%d", rec.RowID)
		for _, col := range rec.Columns() {
			fmt.Fprintf(&b, " %s=%s", col, formatValue(rec, col, r.types[col]))
		}
	}
	return b.String()
}

func formatValue(rec *store.Record, col string, typ schema.ColumnType) string {
	switch {
	case rec.IsNull(col):
		return "NULL"
	case typ == schema.Blob:
		return fmt.Sprintf("<%d bytes>", len(rec.Bytes(col)))
	default:
		return fmt.Sprintf("%q", rec.String(col))
	}
}

// NewRowsCommand creates the rows command.
func NewRowsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RowsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rows <store> <table>",
		Short: "Show one page of rows, newest first",
		Long: `Show up to --limit rows of a table, newest first, skipping --offset rows.

An offset at or past the end of the table prints an empty page.

Example:
  agora rows posts posts --limit 10
  agora rows users sessions --offset 20 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRows(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "rows per page")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

func runRows(cmd *cobra.Command, opts *RowsOptions, storeName, table string) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	if opts.Limit < 1 {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "--limit must be at least 1", nil)
	}

	l, err := loadLayoutOrFail(f, opts.RootOptions)
	if err != nil {
		return err
	}
	s, err := openStore(f, opts.RootOptions, l, storeName)
	if err != nil {
		return err
	}
	defer s.Close()

	cols, err := s.Schema().Describe(ctx, table)
	if err != nil {
		return failStore(f, fmt.Sprintf("cannot read %s.%s", storeName, table), err)
	}
	total, err := s.Count(ctx, table, nil)
	if err != nil {
		return failStore(f, fmt.Sprintf("cannot count %s.%s", storeName, table), err)
	}
	page, err := s.Paginate(ctx, table, opts.Limit, opts.Offset)
	if err != nil {
		return failStore(f, fmt.Sprintf("cannot read %s.%s", storeName, table), err)
	}

	types := make(map[string]schema.ColumnType, len(cols))
	for _, c := range cols {
		types[c.Name] = c.Type
	}
	return f.Success(rowsResult{
		Store:  storeName,
		Table:  table,
		Limit:  opts.Limit,
		Offset: opts.Offset,
		Total:  total,
		Rows:   page,
		types:  types,
	})
}
