package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MaxRecentLimit is the hard ceiling on QueryRecent. Larger requests are
// rejected, never silently truncated.
const MaxRecentLimit = 1000

// tsLayout is fixed-width UTC with nanoseconds, so the TEXT column's
// lexicographic order equals chronological order. RFC3339Nano trims
// trailing zeros and would break that equivalence.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrInvalidLimit marks limit values QueryRecent refuses to serve.
var ErrInvalidLimit = errors.New("invalid limit")

// Log reads and appends lifecycle events.
type Log struct {
	db *sql.DB
}

// New creates a Log over an open database. The event table must have been
// created via the schema initializer (see Descriptor).
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Append inserts an event inside the caller's transaction.
// The transaction is the row mutation's transaction: commit persists both
// the mutation and its event, rollback discards both. Events are never
// updated or deleted afterwards.
func (l *Log) Append(ctx context.Context, tx *sql.Tx, ev Event) error {
	var actor any
	if ev.Actor != "" {
		actor = ev.Actor
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO lifecycle_events
		(id, entity, entity_key, kind, ts, seq, actor, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID,
		ev.Entity,
		ev.Key,
		string(ev.Kind),
		ev.Timestamp.UTC().Format(tsLayout),
		ev.Seq,
		actor,
		ev.Payload,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// MaxSeq returns the highest persisted sequence number, or 0 when the
// log is empty. A restarted process resumes its clock from here.
func (l *Log) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := l.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM lifecycle_events`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	return seq.Int64, nil
}

// QueryByEntity returns all events for one (entity, key) in ascending
// (timestamp, seq) order. Empty slice, not nil, when there are none.
func (l *Log) QueryByEntity(ctx context.Context, entityType, key string) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, entity, entity_key, kind, ts, seq, actor, payload
		FROM lifecycle_events
		WHERE entity = ? AND entity_key = ?
		ORDER BY ts ASC, seq ASC
	`, entityType, key)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// QueryRecent returns the most recent events across all entities in
// descending (timestamp, seq) order, bounded by limit.
// Limits outside (0, MaxRecentLimit] fail with ErrInvalidLimit.
func (l *Log) QueryRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidLimit, limit)
	}
	if limit > MaxRecentLimit {
		return nil, fmt.Errorf("%w: limit %d exceeds maximum %d", ErrInvalidLimit, limit, MaxRecentLimit)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, entity, entity_key, kind, ts, seq, actor, payload
		FROM lifecycle_events
		ORDER BY ts DESC, seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev    Event
		kind  string
		ts    string
		actor sql.NullString
	)
	if err := rows.Scan(&ev.ID, &ev.Entity, &ev.Key, &kind, &ts, &ev.Seq, &actor, &ev.Payload); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}

	ev.Kind = Kind(kind)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Event{}, fmt.Errorf("parse event timestamp %q: %w", ts, err)
	}
	ev.Timestamp = parsed.UTC()
	if actor.Valid {
		ev.Actor = actor.String
	}
	return ev, nil
}
