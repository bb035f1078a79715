package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cuelang.org/go/cue/cuecontext"

	"github.com/acme/bookkeeper/internal/compiler"
	"github.com/acme/bookkeeper/internal/engine"
	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/store"
	"github.com/acme/bookkeeper/internal/testutil"
)

// TraceEvent is one lifecycle event in the scenario's trace, in the
// shape golden files capture.
type TraceEvent struct {
	Seq       int64
	Timestamp time.Time
	Kind      eventlog.Kind
	Entity    string
	Key       string
	Actor     string
	Payload   string
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool

	// Trace contains every lifecycle event the scenario produced, in
	// event order.
	Trace []TraceEvent

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Harness executes one scenario against a fresh engine.
type Harness struct {
	store    *store.Store
	registry *entity.Registry
	engine   *engine.Engine
	events   *eventlog.Log
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// a fixed starting instant and sequential event IDs so repeated runs
// produce identical traces.
//
// Execution flow:
//  1. Compile the scenario's inline entity definitions
//  2. Open a fresh in-memory database and start the engine
//  3. Execute steps with expect validation
//  4. Evaluate assertions against the event log and final state
//  5. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	descriptors, err := compiler.CompileEntities(cuecontext.New().CompileString(scenario.Entities))
	if err != nil {
		return nil, fmt.Errorf("compiling entity definitions: %w", err)
	}

	reg := entity.NewRegistry()
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return nil, fmt.Errorf("registering entity: %w", err)
		}
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	events := eventlog.New(st.DB())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng := engine.New(st, reg, events,
		engine.WithNowFunc(testutil.NewTimeSource(testutil.Epoch, time.Second).Now),
		engine.WithEventIDFunc(testutil.SequentialIDs("evt")),
		engine.WithLogger(logger),
	)

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting engine: %w", err)
	}

	h := &Harness{
		store:    st,
		registry: reg,
		engine:   eng,
		events:   events,
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	if err := h.collectTrace(ctx, result); err != nil {
		return nil, err
	}
	h.evaluateAssertions(ctx, scenario.Assertions, result)

	return result, nil
}

// executeStep runs one operation and validates its expect clause.
// Engine operation errors are expected outcomes, not run failures.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	var (
		rec     entity.Record
		records []entity.Record
		opErr   error
	)

	switch step.Op {
	case OpCreate:
		rec, opErr = h.engine.Create(ctx, step.Entity, step.Args, step.Actor)
	case OpUpdate:
		rec, opErr = h.engine.Update(ctx, step.Entity, step.Key, step.Args, step.Actor)
	case OpDelete:
		rec, opErr = h.engine.Delete(ctx, step.Entity, step.Key, step.Actor)
	case OpGet:
		rec, opErr = h.engine.Get(ctx, step.Entity, step.Key)
	case OpList:
		records, opErr = h.engine.Query(ctx, step.Entity, step.Args, engine.Page{})
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	expect := step.Expect
	if expect == nil || expect.Error == "" {
		if opErr != nil {
			result.AddError("steps[%d] %s %s: unexpected error: %v", index, step.Op, step.Entity, opErr)
			return nil
		}
	} else {
		if opErr == nil {
			result.AddError("steps[%d] %s %s: expected %s error, got success", index, step.Op, step.Entity, expect.Error)
			return nil
		}
		if got := string(engine.CodeOf(opErr)); got != expect.Error {
			result.AddError("steps[%d] %s %s: expected %s error, got %s (%v)", index, step.Op, step.Entity, expect.Error, got, opErr)
		}
		return nil
	}

	if expect == nil {
		return nil
	}

	if expect.Count != nil && len(records) != *expect.Count {
		result.AddError("steps[%d] list %s: expected %d rows, got %d", index, step.Entity, *expect.Count, len(records))
	}
	if expect.Result != nil && rec != nil {
		h.matchRecord(fmt.Sprintf("steps[%d] %s %s", index, step.Op, step.Entity), step.Entity, rec, expect.Result, result)
	}
	return nil
}

// matchRecord checks that rec carries the expected values. Subset
// match: fields the expectation leaves out are ignored.
func (h *Harness) matchRecord(label, entityName string, rec entity.Record, expected map[string]any, result *Result) {
	d, ok := h.registry.Lookup(entityName)
	if !ok {
		result.AddError("%s: unknown entity %q", label, entityName)
		return
	}
	for name, raw := range expected {
		f, ok := d.Field(name)
		if !ok {
			result.AddError("%s: expectation names unknown field %q", label, name)
			continue
		}
		want, err := entity.Coerce(f.Type, raw)
		if err != nil {
			result.AddError("%s: expectation field %q: %v", label, name, err)
			continue
		}
		got, ok := rec[name]
		if !ok {
			result.AddError("%s: result missing field %q", label, name)
			continue
		}
		if !entity.Equal(want, got) {
			result.AddError("%s: field %q: expected %s, got %s", label, name, entity.KeyString(want), entity.KeyString(got))
		}
	}
}

// collectTrace reads the complete event log in event order.
func (h *Harness) collectTrace(ctx context.Context, result *Result) error {
	events, err := h.events.QueryRecent(ctx, eventlog.MaxRecentLimit)
	if err != nil {
		return fmt.Errorf("collecting trace: %w", err)
	}
	// QueryRecent is newest first; the trace reads oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		result.Trace = append(result.Trace, TraceEvent{
			Seq:       ev.Seq,
			Timestamp: ev.Timestamp,
			Kind:      ev.Kind,
			Entity:    ev.Entity,
			Key:       ev.Key,
			Actor:     ev.Actor,
			Payload:   ev.Payload,
		})
	}
	return nil
}

func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		label := fmt.Sprintf("assertions[%d] %s", i, a.Type)
		switch a.Type {
		case AssertEventCount:
			h.assertEventCount(ctx, label, a, result)
		case AssertEventContains:
			h.assertEventContains(ctx, label, a, result)
		case AssertFinalState:
			h.assertFinalState(ctx, label, a, result)
		default:
			result.AddError("%s: unknown assertion type", label)
		}
	}
}

func (h *Harness) assertEventCount(ctx context.Context, label string, a Assertion, result *Result) {
	events, err := h.events.QueryByEntity(ctx, a.Entity, keyString(a.Key))
	if err != nil {
		result.AddError("%s: %v", label, err)
		return
	}
	if len(events) != a.Count {
		result.AddError("%s: expected %d events for %s/%s, got %d", label, a.Count, a.Entity, keyString(a.Key), len(events))
	}
}

func (h *Harness) assertEventContains(ctx context.Context, label string, a Assertion, result *Result) {
	events, err := h.events.QueryByEntity(ctx, a.Entity, keyString(a.Key))
	if err != nil {
		result.AddError("%s: %v", label, err)
		return
	}
	for _, ev := range events {
		if string(ev.Kind) != a.Kind {
			continue
		}
		if a.Payload != "" && ev.Payload != a.Payload {
			continue
		}
		if a.Actor != "" && ev.Actor != a.Actor {
			continue
		}
		return
	}
	result.AddError("%s: no %s event for %s/%s matching expectation", label, a.Kind, a.Entity, keyString(a.Key))
}

func (h *Harness) assertFinalState(ctx context.Context, label string, a Assertion, result *Result) {
	rec, err := h.engine.Get(ctx, a.Entity, a.Key)
	if a.Expect == nil {
		if err == nil {
			result.AddError("%s: expected %s/%s to be gone, but it exists", label, a.Entity, keyString(a.Key))
		} else if !engine.IsNotFound(err) {
			result.AddError("%s: %v", label, err)
		}
		return
	}
	if err != nil {
		result.AddError("%s: %v", label, err)
		return
	}
	h.matchRecord(label, a.Entity, rec, a.Expect, result)
}

// keyString renders a YAML key value the way the event log stores keys.
func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	default:
		return fmt.Sprintf("%v", k)
	}
}
