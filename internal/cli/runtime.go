package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/acme/bookkeeper/internal/engine"
	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/report"
	"github.com/acme/bookkeeper/internal/store"
)

// runtime bundles the started engine and its supporting pieces for one
// command invocation. Commands are short-lived: open, operate, close.
type runtime struct {
	store    *store.Store
	engine   *engine.Engine
	reporter *report.Reporter
}

// openRuntime loads entity definitions, opens the database, and starts
// the engine. Failures here are command errors (exit code 2).
func openRuntime(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*runtime, error) {
	descriptors, err := LoadEntities(opts.Entities)
	if err != nil {
		_ = f.Error(&CLIError{Code: "LOAD", Message: err.Error()})
		return nil, WrapExitError(ExitCommandError, "loading entity definitions", err)
	}
	f.VerboseLog("Loaded %d entity definition(s) from %s", len(descriptors), opts.Entities)

	reg := entity.NewRegistry()
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			_ = f.Error(&CLIError{Code: "LOAD", Message: err.Error()})
			return nil, WrapExitError(ExitCommandError, "registering entity", err)
		}
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		_ = f.Error(&CLIError{Code: string(engine.CodeConnection), Message: err.Error()})
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}

	events := eventlog.New(s.DB())
	eng := engine.New(s, reg, events)
	if err := eng.Start(ctx); err != nil {
		s.Close()
		return nil, operationError(f, err)
	}
	f.VerboseLog("Database ready at %s", opts.DB)

	return &runtime{store: s, engine: eng, reporter: report.New(events)}, nil
}

func (r *runtime) Close() {
	r.store.Close()
}

// newFormatter builds the command's output formatter from global flags.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
