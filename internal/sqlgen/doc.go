// Package sqlgen generates parameterized SQLite statements from entity
// descriptors.
//
// The generator is the only place SQL text is assembled, and it follows
// two hard rules:
//
//   - Values are NEVER interpolated into SQL text. Every value travels as
//     a ? placeholder with a typed parameter, which removes injection risk
//     structurally rather than by escaping.
//   - Identifiers (table and column names) come only from validated
//     descriptors, and are re-checked against a strict identifier pattern
//     before use. Request input can select WHICH descriptor field to
//     filter on, but never contributes identifier text of its own.
//
// Every SELECT carries a stable ORDER BY (the descriptor's default order
// field, tie-broken by primary key) so paginated reads are reproducible.
package sqlgen
