// Package eventlog provides the append-only store of lifecycle events.
//
// Every create, update, and delete against any registered entity produces
// exactly one Event: entity type, primary-key value, kind, wall timestamp,
// a process-monotonic sequence number, the acting identity (nullable), and
// a canonical-JSON payload - a full snapshot for created/deleted, a
// field-level diff for updated.
//
// Events are immutable: the log only ever gains rows. Appends always run
// inside the caller's transaction so a row mutation and its event commit
// or roll back together.
//
// Ordering invariant: events for the same (entity, key) are totally
// ordered by timestamp, ties broken by the monotonic sequence number, and
// every query orders by exactly that pair.
//
// The log's own table is an ordinary registered entity: its descriptor is
// fixed here and created through the same schema initializer as every
// other table.
package eventlog
