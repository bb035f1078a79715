package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Long: `Open (or create) the database and ensure every registered entity
has its table, including the lifecycle event log. Safe to run repeatedly:
existing tables and data are left untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	if f.Format == "json" {
		return f.Success(map[string]string{"database": opts.DB})
	}
	fmt.Fprintf(f.Writer, "✓ Database initialized at %s\n", opts.DB)
	return nil
}
