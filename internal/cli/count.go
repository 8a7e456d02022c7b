package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type countResult struct {
	Store    string            `json:"store"`
	Table    string            `json:"table"`
	Criteria map[string]string `json:"criteria,omitempty"`
	Count    int64             `json:"count"`
}

func (r countResult) String() string {
	return fmt.Sprintf("%d", r.Count)
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <store> <table> [column=value...]",
		Short: "Count rows matching equality criteria",
		Long: `Count the rows of a table. Each column=value argument adds an
equality test; all tests must hold.

Example:
  agora count posts posts
  agora count posts hashtags post_id=p1`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, rootOpts)
			storeName, table := args[0], args[1]

			criteria, err := parseCriteria(args[2:])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid criteria", err)
			}

			l, err := loadLayoutOrFail(f, rootOpts)
			if err != nil {
				return err
			}
			s, err := openStore(f, rootOpts, l, storeName)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Count(cmd.Context(), table, criteria)
			if err != nil {
				return failStore(f, fmt.Sprintf("cannot count %s.%s", storeName, table), err)
			}

			var shown map[string]string
			if len(criteria) > 0 {
				shown = make(map[string]string, len(criteria))
				for _, eq := range criteria {
					shown[eq.Column] = fmt.Sprint(eq.Value)
				}
			}
			return f.Success(countResult{Store: storeName, Table: table, Criteria: shown, Count: n})
		},
	}
}
