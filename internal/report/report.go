// Package report answers read-only questions about the event log: the
// full history of one record, the most recent activity across the store,
// and human-readable activity summaries for operators.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/acme/bookkeeper/internal/engine"
	"github.com/acme/bookkeeper/internal/eventlog"
)

// Reporter reads the event log. It never writes.
type Reporter struct {
	events *eventlog.Log
}

func New(events *eventlog.Log) *Reporter {
	return &Reporter{events: events}
}

// History returns every lifecycle event for one record, oldest first.
// An unknown key yields an empty history, not an error: asking about a
// record that never existed is a valid question with an empty answer.
func (r *Reporter) History(ctx context.Context, entityName, key string) ([]eventlog.Event, error) {
	events, err := r.events.QueryByEntity(ctx, entityName, key)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return events, nil
}

// Recent returns the latest events across all entities, newest first.
// Limit must be positive and at most eventlog.MaxRecentLimit; anything
// else fails with VALIDATION.
func (r *Reporter) Recent(ctx context.Context, limit int) ([]eventlog.Event, error) {
	events, err := r.events.QueryRecent(ctx, limit)
	if err != nil {
		if errors.Is(err, eventlog.ErrInvalidLimit) {
			return nil, engine.ValidationErrorf("",
				"recent limit %d out of range (1..%d)", limit, eventlog.MaxRecentLimit)
		}
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return events, nil
}

// Activity renders the latest events as one-line summaries, newest
// first, for the ops surface.
func (r *Reporter) Activity(ctx context.Context, limit int) ([]string, error) {
	events, err := r.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = Summarize(ev)
	}
	return lines, nil
}

// Summarize renders one event as a single line:
//
//	2024-01-01T00:00:02Z alice updated booking 1 (price: 100 -> 120)
//
// Created and deleted events list field count instead of a diff.
func Summarize(ev eventlog.Event) string {
	actor := ev.Actor
	if actor == "" {
		actor = "-"
	}

	var detail string
	switch ev.Kind {
	case eventlog.KindUpdated:
		detail = diffSummary(ev.Payload)
	default:
		detail = snapshotSummary(ev.Payload)
	}

	s := fmt.Sprintf("%s %s %s %s %s",
		ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		actor, ev.Kind, ev.Entity, ev.Key)
	if detail != "" {
		s += " (" + detail + ")"
	}
	return s
}

func diffSummary(payload string) string {
	var diff map[string]struct {
		Old json.RawMessage `json:"old"`
		New json.RawMessage `json:"new"`
	}
	if err := json.Unmarshal([]byte(payload), &diff); err != nil {
		return ""
	}
	names := make([]string, 0, len(diff))
	for name := range diff {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		ch := diff[name]
		parts[i] = fmt.Sprintf("%s: %s -> %s", name, ch.Old, ch.New)
	}
	return strings.Join(parts, ", ")
}

func snapshotSummary(payload string) string {
	var snap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return ""
	}
	n := len(snap)
	if n == 1 {
		return "1 field"
	}
	return fmt.Sprintf("%d fields", n)
}
