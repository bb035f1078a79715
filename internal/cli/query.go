package cli

import (
	"github.com/spf13/cobra"

	"github.com/acme/bookkeeper/internal/engine"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <entity> <key>",
		Short:         "Read one record by primary key",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runGet(opts *RootOptions, entityName, key string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.engine.Get(cmd.Context(), entityName, key)
	if err != nil {
		return operationError(f, err)
	}
	return f.Record(rec)
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter string
	Limit  int
	Offset int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List records with optional filters",
		Long: `List records of one entity type in stable order.

Filters are equality-only, given as a JSON object. Results page by
--limit and --offset; limits above 1000 are rejected.

Example:
  bookkeeper list booking --filter '{"price":100}' --limit 20`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "{}", "equality filters as a JSON object")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (default 100, max 1000)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

func runList(opts *ListOptions, entityName string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	filters, err := parsePayload(opts.Filter)
	if err != nil {
		_ = f.Error(&CLIError{Code: "VALIDATION", Message: err.Error()})
		return WrapExitError(ExitOperationErr, "bad filter", err)
	}

	rt, err := openRuntime(cmd.Context(), opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.engine.Query(cmd.Context(), entityName, filters,
		engine.Page{Size: opts.Limit, Offset: opts.Offset})
	if err != nil {
		return operationError(f, err)
	}
	return f.Records(records)
}
