package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/agora/internal/layout"
)

// initResult is the output of the init command.
type initResult struct {
	DataDir string               `json:"data_dir"`
	Stores  []layout.StoreReport `json:"stores"`
	Created int                  `json:"created"`
}

func (r initResult) String() string {
	var b strings.Builder
	for _, s := range r.Stores {
		fmt.Fprintf(&b, "%s (%s): %d created, %d existing\n", s.Name, s.Path, len(s.Created), len(s.Existing))
		for _, t := range s.Created {
			fmt.Fprintf(&b, "  + %s\n", t)
		}
	}
	fmt.Fprintf(&b, "%d tables created", r.Created)
	return b.String()
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create store files and their missing tables",
		Long: `Create every store file declared by the layout under the data
directory, then create the declared tables that are missing.

Existing tables are never altered. Running init twice is safe.

Example:
  agora init --data-dir ./data
  agora init --layout ./custom.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, rootOpts)

			l, err := loadLayoutOrFail(f, rootOpts)
			if err != nil {
				return err
			}

			dataDir := rootOpts.Config.DataDir
			report, err := layout.Bootstrap(cmd.Context(), dataDir, l, rootOpts.Config.StoreOptions()...)
			if err != nil {
				return failStore(f, "bootstrap failed", err)
			}

			return f.Success(initResult{
				DataDir: dataDir,
				Stores:  report.Stores,
				Created: report.CreatedCount(),
			})
		},
	}
}
