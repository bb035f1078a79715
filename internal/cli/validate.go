package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate entity definitions without touching the database",
		Long: `Validate CUE entity definitions without opening the database.

Checks syntax, field types, and descriptor rules (exactly one primary
key, version field constraints) and reports the first problem found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

type validationSummary struct {
	Valid    bool     `json:"valid"`
	Entities []string `json:"entities,omitempty"`
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	descriptors, err := LoadEntities(opts.Entities)
	if err != nil {
		_ = f.Error(&CLIError{Code: "VALIDATION", Message: err.Error()})
		return WrapExitError(ExitOperationErr, "validation failed", err)
	}

	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
		f.VerboseLog("Validated entity: %s (%d fields)", d.Name, len(d.Fields))
	}

	if f.Format == "json" {
		return f.Success(validationSummary{Valid: true, Entities: names})
	}
	fmt.Fprintf(f.Writer, "✓ %d entity definition(s) valid\n", len(names))
	return nil
}
