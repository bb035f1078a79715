// Package store provides the SQLite connection and schema initialization
// for bookkeeper.
//
// Open configures the database the same way on every path: WAL journal,
// NORMAL synchronous, a 5-second busy timeout, and foreign key enforcement,
// with the pool capped at a single connection (SQLite allows one writer at
// a time; a single pooled connection avoids SQLITE_BUSY churn).
//
// EnsureSchema derives CREATE TABLE IF NOT EXISTS statements from entity
// descriptors. It is idempotent and strictly additive: running it N times
// yields the same schema as once, and it never drops or alters a column.
// A pre-existing table whose columns no longer match a descriptor is
// reported as drift, not repaired - repairing live schemas is out of scope
// and failing startup is the safe behavior.
//
// Transactions are per-operation: callers begin one, do their work, and
// release it on every exit path. Nothing in this package shares a
// transaction between concurrent operations.
package store
