package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/store"
)

// Engine executes CRUD operations for every registered entity type.
// Construct with New, wire descriptors into the registry, then call Start
// once before serving operations.
type Engine struct {
	store    *store.Store
	registry *entity.Registry
	events   *eventlog.Log
	clock    *Clock
	logger   *slog.Logger

	now        func() time.Time
	newEventID func() string

	startOnce sync.Once
	started   atomic.Bool
	startErr  error
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithNowFunc overrides the wall-clock source for event timestamps.
// Tests use this for deterministic traces.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEventIDFunc overrides lifecycle event ID generation.
func WithEventIDFunc(fn func() string) Option {
	return func(e *Engine) { e.newEventID = fn }
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the event sequence clock, e.g. one resumed from the last
// persisted seq after a restart.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New wires an Engine from its collaborators in dependency order.
// There is no ambient container: the caller builds the store, registry,
// and event log explicitly and hands them over here.
func New(st *store.Store, reg *entity.Registry, events *eventlog.Log, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		registry:   reg,
		events:     events,
		clock:      NewClock(),
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		newEventID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start seals the registry and initializes the schema, exactly once
// process-wide. The event log's own descriptor is registered here so its
// table goes through the same initializer as every entity table.
//
// A failed Start is permanent: the error is returned again on every
// subsequent call and the engine never serves operations. Callers must
// treat that as fatal to process startup.
func (e *Engine) Start(ctx context.Context) error {
	e.startOnce.Do(func() {
		if _, ok := e.registry.Lookup(eventlog.TableName); !ok {
			if err := e.registry.Register(eventlog.Descriptor()); err != nil {
				e.startErr = schemaError("register event log descriptor", err)
				return
			}
		}
		e.registry.Seal()

		if err := e.store.EnsureSchema(ctx, e.registry.All()); err != nil {
			e.startErr = schemaError("initialize schema", err)
			return
		}

		// Resume the sequence clock above the last persisted event so
		// (timestamp, seq) ordering holds across restarts.
		seq, err := e.events.MaxSeq(ctx)
		if err != nil {
			e.startErr = schemaError("resume event sequence", err)
			return
		}
		e.clock.AdvanceTo(seq)

		e.started.Store(true)
		e.logger.Info("engine started", "entities", len(e.registry.All()))
	})
	return e.startErr
}

// mutableDescriptor resolves an entity name for a mutation. The event
// log's descriptor is registered for schema purposes only: its rows are
// append-only and never writable through the CRUD surface.
func (e *Engine) mutableDescriptor(name string) (*entity.Descriptor, error) {
	if name == eventlog.TableName {
		return nil, ValidationErrorf(name, "%q is append-only and cannot be mutated", name)
	}
	return e.descriptor(name)
}

// descriptor resolves an entity name, guarding the startup gate.
func (e *Engine) descriptor(name string) (*entity.Descriptor, error) {
	if !e.started.Load() {
		return nil, schemaError("engine not started", nil)
	}
	d, ok := e.registry.Lookup(name)
	if !ok {
		return nil, ValidationErrorf(name, "unknown entity type %q", name)
	}
	return d, nil
}

// coerceKey converts an untyped key to the descriptor's primary key type.
func coerceKey(d *entity.Descriptor, key any) (entity.Value, error) {
	pk := d.PrimaryKey()
	v, err := entity.Coerce(pk.Type, key)
	if err != nil {
		return nil, ValidationErrorf(d.Name, "primary key: %v", err)
	}
	if _, isNull := v.(entity.Null); isNull {
		return nil, ValidationErrorf(d.Name, "primary key must not be null")
	}
	return v, nil
}

// rowScanner abstracts sql.Row and sql.Rows for record scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one storage row into a typed Record, translating each
// column through the descriptor's field types.
func scanRecord(d *entity.Descriptor, row rowScanner) (entity.Record, error) {
	raw := make([]any, len(d.Fields))
	ptrs := make([]any, len(d.Fields))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}

	rec := make(entity.Record, len(d.Fields))
	for i, f := range d.Fields {
		v, err := entity.FromStored(f.Type, raw[i])
		if err != nil {
			return nil, storageError(d.Name, "decode column "+f.Name, err)
		}
		rec[f.Name] = v
	}
	return rec, nil
}
