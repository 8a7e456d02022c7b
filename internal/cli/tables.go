package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// tableInfo describes one table of one store.
type tableInfo struct {
	Store    string `json:"store"`
	Table    string `json:"table"`
	Rows     int64  `json:"rows"`
	Declared bool   `json:"declared"`
}

// storeInfo describes one store file.
type storeInfo struct {
	Store   string      `json:"store"`
	Path    string      `json:"path"`
	Missing bool        `json:"missing"`
	Tables  []tableInfo `json:"tables"`
}

type tablesResult []storeInfo

func (r tablesResult) String() string {
	var b strings.Builder
	for i, s := range r {
		if i > 0 {
			b.WriteByte('\n')
		}
		if s.Missing {
			fmt.Fprintf(&b, "%s (%s): missing", s.Store, s.Path)
			continue
		}
		fmt.Fprintf(&b, "%s (%s):", s.Store, s.Path)
		for _, t := range s.Tables {
			mark := ""
			if !t.Declared {
				mark = " (undeclared)"
			}
			fmt.Fprintf(&b, "\n  %-24s %8d rows%s", t.Table, t.Rows, mark)
		}
	}
	return b.String()
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [store...]",
		Short: "List the tables of each store with row counts",
		Long: `List the tables found in each store file with their row counts.

Without arguments every store of the layout is listed. Tables present in a
file but not declared by the layout are marked.

Example:
  agora tables
  agora tables posts --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, rootOpts)
			ctx := cmd.Context()

			l, err := loadLayoutOrFail(f, rootOpts)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = l.Names()
			}

			var result tablesResult
			for _, name := range names {
				path, err := l.Path(rootOpts.Config.DataDir, name)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown store %q", name), err)
				}
				info := storeInfo{Store: name, Path: path, Tables: []tableInfo{}}
				if _, err := os.Stat(path); err != nil {
					info.Missing = true
					result = append(result, info)
					continue
				}

				s, err := openStore(f, rootOpts, l, name)
				if err != nil {
					return err
				}
				tables, err := s.Tables(ctx)
				if err != nil {
					s.Close()
					return failStore(f, "failed to list tables", err)
				}
				spec, _ := l.Store(name)
				for _, table := range tables {
					n, err := s.Count(ctx, table, nil)
					if err != nil {
						s.Close()
						return failStore(f, fmt.Sprintf("failed to count %s", table), err)
					}
					_, declared := spec.Table(table)
					info.Tables = append(info.Tables, tableInfo{Store: name, Table: table, Rows: n, Declared: declared})
				}
				s.Close()
				result = append(result, info)
			}

			return f.Success(result)
		},
	}
}
