// Package entity defines the descriptor-driven data model for bookkeeper.
//
// An entity Descriptor is explicit metadata for one persisted record type:
// its name, its ordered fields, and per-field semantics (type, nullability,
// primary key, auto-generation, optimistic version). Descriptors are plain
// data constructed at startup - no reflection over Go types is involved.
// The CRUD engine, the schema initializer, and the SQL generator are all
// polymorphic over descriptors; adding a record type never adds code.
//
// Values are a sealed set of typed constants:
//   - Int: INTEGER columns, always int64
//   - Text: TEXT columns, NFC-normalized for canonical serialization
//   - Bool: stored as INTEGER 0/1
//   - Decimal: exact arbitrary-precision decimals (cockroachdb/apd),
//     stored as TEXT so money never round-trips through floats
//   - Timestamp: stored as RFC 3339 TEXT in UTC
//   - Null: explicit null for nullable fields
//
// A Record is a field-name to Value mapping validated against a Descriptor.
// Records are never persisted directly; they are translated to and from
// storage rows through the descriptor on every read and write.
//
// MarshalCanonical produces deterministic JSON (sorted keys by UTF-16 code
// units, no HTML escaping, NFC strings) for lifecycle event payloads, so
// that identical snapshots always serialize to identical bytes.
package entity
