package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// parsePayload decodes a JSON object argument, preserving number
// precision so decimal fields never round-trip through float64.
func parsePayload(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return payload, nil
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <entity> <json-payload>",
		Short: "Create a record",
		Long: `Create a record and append a created event, atomically.

The payload is a JSON object of field values. Auto-generated keys must
be omitted; the stored record (with its assigned key) is printed.

Example:
  bookkeeper create booking '{"name":"Room A","price":100}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runCreate(opts *RootOptions, entityName, rawPayload string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	payload, err := parsePayload(rawPayload)
	if err != nil {
		_ = f.Error(&CLIError{Code: "VALIDATION", Message: err.Error()})
		return WrapExitError(ExitOperationErr, "bad payload", err)
	}

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.engine.Create(cmd.Context(), entityName, payload, opts.Actor)
	if err != nil {
		return operationError(f, err)
	}
	return f.Record(rec)
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <key> <json-payload>",
		Short: "Update a record",
		Long: `Apply a partial update to an existing record and append an updated
event carrying exactly the fields that changed. Supplying only unchanged
values writes nothing and logs nothing.

Example:
  bookkeeper update booking 1 '{"price":120}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
}

func runUpdate(opts *RootOptions, entityName, key, rawPayload string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	payload, err := parsePayload(rawPayload)
	if err != nil {
		_ = f.Error(&CLIError{Code: "VALIDATION", Message: err.Error()})
		return WrapExitError(ExitOperationErr, "bad payload", err)
	}

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.engine.Update(cmd.Context(), entityName, key, payload, opts.Actor)
	if err != nil {
		return operationError(f, err)
	}
	return f.Record(rec)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <key>",
		Short: "Delete a record",
		Long: `Delete a record and append a deleted event carrying its last known
state. Prints the deleted record.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runDelete(opts *RootOptions, entityName, key string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.engine.Delete(cmd.Context(), entityName, key, opts.Actor)
	if err != nil {
		return operationError(f, err)
	}
	return f.Record(rec)
}
