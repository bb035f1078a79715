package eventlog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/acme/bookkeeper/internal/entity"
)

// TableName is the fixed table behind the event log.
const TableName = "lifecycle_events"

// Kind classifies a lifecycle event.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Event is one immutable audit record of a mutation.
type Event struct {
	// ID is a UUIDv7, assigned at append time.
	ID string

	// Entity is the entity type name the mutation targeted.
	Entity string

	// Key is the string form of the mutated row's primary key.
	Key string

	// Kind is created, updated, or deleted.
	Kind Kind

	// Timestamp is the wall-clock mutation time, UTC.
	Timestamp time.Time

	// Seq is a process-monotonic sequence number; the tiebreaker for
	// events sharing a timestamp.
	Seq int64

	// Actor identifies who performed the mutation. Empty means unknown
	// and is stored as NULL.
	Actor string

	// Payload is canonical JSON: a full field snapshot for created and
	// deleted events, a field-level old/new diff for updated events.
	Payload string
}

// Descriptor returns the fixed built-in descriptor for the event table.
// It is registered and initialized like any other entity.
func Descriptor() *entity.Descriptor {
	return &entity.Descriptor{
		Name: TableName,
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeText, PrimaryKey: true},
			{Name: "entity", Type: entity.TypeText},
			{Name: "entity_key", Type: entity.TypeText},
			{Name: "kind", Type: entity.TypeText},
			{Name: "ts", Type: entity.TypeTimestamp},
			{Name: "seq", Type: entity.TypeInteger},
			{Name: "actor", Type: entity.TypeText, Nullable: true},
			{Name: "payload", Type: entity.TypeText},
		},
	}
}

// SnapshotPayload serializes a full record snapshot as canonical JSON.
func SnapshotPayload(rec entity.Record) (string, error) {
	data, err := entity.MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// FieldChange is one entry of an update diff.
type FieldChange struct {
	Old entity.Value
	New entity.Value
}

// DiffPayload serializes an update diff as canonical JSON of the shape
// {"field":{"new":...,"old":...}}, fields sorted by name.
func DiffPayload(changes map[string]FieldChange) (string, error) {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		ch := changes[name]
		newJSON, err := entity.MarshalCanonical(ch.New)
		if err != nil {
			return "", fmt.Errorf("marshal diff for %q: %w", name, err)
		}
		oldJSON, err := entity.MarshalCanonical(ch.Old)
		if err != nil {
			return "", fmt.Errorf("marshal diff for %q: %w", name, err)
		}
		fmt.Fprintf(&b, "%q:{\"new\":%s,\"old\":%s}", name, newJSON, oldJSON)
	}
	b.WriteByte('}')
	return b.String(), nil
}
