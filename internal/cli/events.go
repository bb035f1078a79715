package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/report"
)

// eventView is the JSON shape for one event in CLI output.
type eventView struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Key       string          `json:"key"`
	Kind      string          `json:"kind"`
	Timestamp string          `json:"timestamp"`
	Seq       int64           `json:"seq"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

func toEventViews(events []eventlog.Event) []eventView {
	views := make([]eventView, len(events))
	for i, ev := range events {
		views[i] = eventView{
			ID:        ev.ID,
			Entity:    ev.Entity,
			Key:       ev.Key,
			Kind:      string(ev.Kind),
			Timestamp: ev.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
			Seq:       ev.Seq,
			Actor:     ev.Actor,
			Payload:   json.RawMessage(ev.Payload),
		}
	}
	return views
}

func printEvents(f *OutputFormatter, events []eventlog.Event) error {
	if f.Format == "json" {
		return f.Success(toEventViews(events))
	}
	for _, ev := range events {
		fmt.Fprintln(f.Writer, report.Summarize(ev))
	}
	return nil
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events <entity> <key>",
		Short: "Show the full lifecycle history of one record",
		Long: `Show every lifecycle event for one record, oldest first. History
survives deletion: a deleted record's events remain queryable. A record
that never existed has an empty history.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runEvents(opts *RootOptions, entityName, key string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	rt, err := openRuntime(cmd.Context(), opts, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	events, err := rt.reporter.History(cmd.Context(), entityName, key)
	if err != nil {
		return operationError(f, err)
	}
	return printEvents(f, events)
}

// RecentOptions holds flags for the recent command.
type RecentOptions struct {
	*RootOptions
	Limit int
}

// NewRecentCommand creates the recent command.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "recent",
		Short:         "Show the most recent activity across all entities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "events to show (max 1000)")

	return cmd
}

func runRecent(opts *RecentOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	rt, err := openRuntime(cmd.Context(), opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	events, err := rt.reporter.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return operationError(f, err)
	}
	return printEvents(f, events)
}
