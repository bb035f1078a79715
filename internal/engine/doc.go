// Package engine implements the descriptor-polymorphic CRUD engine.
//
// One Engine serves every registered entity type with the same code path:
// operations take an entity name plus untyped key/value input, resolve the
// descriptor from the registry, and generate parameterized SQL from field
// metadata alone. Unknown fields are rejected before any SQL is assembled,
// and values are only ever bound as typed parameters.
//
// ARCHITECTURE:
//
// Request-scoped transactions:
// Each operation runs to completion on its own transaction, acquired at
// entry and released on every exit path. Nothing is shared between
// concurrent operations; all consistency lives at the single-operation
// transaction boundary.
//
// Mutation flow:
//  1. Resolve descriptor, coerce and validate the payload
//  2. Begin transaction
//  3. Read current row state (update/delete) or insert (create)
//  4. Append exactly one lifecycle event in the same transaction
//  5. Commit - the row change and its event persist together or not at all
//
// Startup gate:
// Start runs schema initialization exactly once process-wide, behind
// sync.Once. Operations dispatched before Start completes fail with a
// SCHEMA error; a failed Start is fatal and never retried, so the process
// never serves requests over unverified schema.
//
// Concurrent writers to the same key rely on SQLite's transaction
// isolation: last writer wins, unless a descriptor declares a version
// field, in which case updates supply the current version and a mismatch
// fails with CONFLICT.
package engine
