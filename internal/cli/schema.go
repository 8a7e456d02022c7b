package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/agora/internal/schema"
)

type schemaResult struct {
	Store  string `json:"store"`
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
	Action string `json:"action"`
}

func (r schemaResult) String() string {
	if r.Column != "" {
		return fmt.Sprintf("%s: %s.%s.%s", r.Action, r.Store, r.Table, r.Column)
	}
	return fmt.Sprintf("%s: %s.%s", r.Action, r.Store, r.Table)
}

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Change table definitions",
		Long: `Add or drop columns and drop tables in an existing store.

These changes are not migrations: they apply immediately and are not
recorded anywhere.`,
	}

	cmd.AddCommand(newAddColumnCommand(rootOpts))
	cmd.AddCommand(newDropColumnCommand(rootOpts))
	cmd.AddCommand(newDropTableCommand(rootOpts))

	return cmd
}

func newAddColumnCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-column <store> <table> <column> <type>",
		Short: "Append a column to a table",
		Long: `Append a column to a table. Type is one of INTEGER, REAL, TEXT, BLOB
or BOOLEAN (stored as INTEGER).

Example:
  agora schema add-column posts posts pinned BOOLEAN`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, rootOpts)
			typ, err := schema.ParseColumnType(args[3])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeSchema, "invalid column type", err)
			}
			return runSchemaChange(cmd, rootOpts, args[0], args[1], args[2], "column added",
				func(c *schema.Catalog) error {
					return c.AddColumn(cmd.Context(), args[1], schema.Col(args[2], typ))
				})
		},
	}
}

func newDropColumnCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop-column <store> <table> <column>",
		Short:         "Remove a column from a table",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaChange(cmd, rootOpts, args[0], args[1], args[2], "column dropped",
				func(c *schema.Catalog) error {
					return c.DropColumn(cmd.Context(), args[1], args[2])
				})
		},
	}
}

func newDropTableCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop-table <store> <table>",
		Short:         "Remove a table and all of its rows",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaChange(cmd, rootOpts, args[0], args[1], "", "table dropped",
				func(c *schema.Catalog) error {
					return c.DropTable(cmd.Context(), args[1])
				})
		},
	}
}

func runSchemaChange(cmd *cobra.Command, rootOpts *RootOptions, storeName, table, column, action string, change func(*schema.Catalog) error) error {
	f := newFormatter(cmd, rootOpts)

	l, err := loadLayoutOrFail(f, rootOpts)
	if err != nil {
		return err
	}
	s, err := openStore(f, rootOpts, l, storeName)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := change(s.Schema()); err != nil {
		return failStore(f, fmt.Sprintf("cannot change %s.%s", storeName, table), err)
	}
	return f.Success(schemaResult{Store: storeName, Table: table, Column: column, Action: action})
}
