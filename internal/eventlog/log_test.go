package eventlog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/store"
)

func openTestLog(t *testing.T) (*store.Store, *Log) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(context.Background(), []*entity.Descriptor{Descriptor()}))
	return s, New(s.DB())
}

func appendEvent(t *testing.T, s *store.Store, l *Log, ev Event) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, tx, ev))
	require.NoError(t, tx.Commit())
}

func testEvent(seq int64, key string, kind Kind) Event {
	return Event{
		ID:        fmt.Sprintf("evt-%03d", seq),
		Entity:    "booking",
		Key:       key,
		Kind:      kind,
		Timestamp: time.Date(2024, 3, 1, 12, 0, int(seq), 0, time.UTC),
		Seq:       seq,
		Actor:     "ops",
		Payload:   `{"id":1}`,
	}
}

func TestDescriptorValid(t *testing.T) {
	require.NoError(t, Descriptor().Validate())
	assert.Equal(t, TableName, Descriptor().Name)
}

func TestAppendAndQueryByEntity(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	appendEvent(t, s, l, testEvent(1, "1", KindCreated))
	appendEvent(t, s, l, testEvent(2, "1", KindUpdated))
	appendEvent(t, s, l, testEvent(3, "2", KindCreated))

	events, err := l.QueryByEntity(ctx, "booking", "1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, KindCreated, events[0].Kind)
	assert.Equal(t, KindUpdated, events[1].Kind)
	assert.Equal(t, "ops", events[0].Actor)
	assert.Equal(t, int64(1), events[0].Seq)
}

func TestQueryByEntityEmpty(t *testing.T) {
	ctx := context.Background()
	_, l := openTestLog(t)

	events, err := l.QueryByEntity(ctx, "booking", "missing")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestQueryByEntityOrdersByTimestampThenSeq(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	// Same timestamp, distinct seq: seq breaks the tie.
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, seq := range []int64{3, 1, 2} {
		ev := testEvent(seq, "1", KindUpdated)
		ev.Timestamp = ts
		appendEvent(t, s, l, ev)
	}

	events, err := l.QueryByEntity(ctx, "booking", "1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, events[i].Seq)
	}
}

func TestQueryRecentDescending(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	for seq := int64(1); seq <= 5; seq++ {
		appendEvent(t, s, l, testEvent(seq, "1", KindUpdated))
	}

	events, err := l.QueryRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(5), events[0].Seq)
	assert.Equal(t, int64(4), events[1].Seq)
	assert.Equal(t, int64(3), events[2].Seq)
}

func TestMaxSeq(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	seq, err := l.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "empty log reports 0")

	appendEvent(t, s, l, testEvent(1, "1", KindCreated))
	appendEvent(t, s, l, testEvent(2, "1", KindUpdated))

	seq, err = l.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestQueryRecentLimitValidation(t *testing.T) {
	ctx := context.Background()
	_, l := openTestLog(t)

	for _, limit := range []int{0, -1, MaxRecentLimit + 1, 5000} {
		_, err := l.QueryRecent(ctx, limit)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, errors.Is(err, ErrInvalidLimit), "limit %d: %v", limit, err)
	}

	// The ceiling itself is allowed.
	_, err := l.QueryRecent(ctx, MaxRecentLimit)
	assert.NoError(t, err)
}

func TestAppendNullActor(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	ev := testEvent(1, "1", KindCreated)
	ev.Actor = ""
	appendEvent(t, s, l, ev)

	events, err := l.QueryByEntity(ctx, "booking", "1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].Actor)

	var count int
	require.NoError(t, s.DB().QueryRow(
		"SELECT COUNT(*) FROM lifecycle_events WHERE actor IS NULL").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAppendRollbackDiscardsEvent(t *testing.T) {
	ctx := context.Background()
	s, l := openTestLog(t)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, tx, testEvent(1, "1", KindCreated)))
	require.NoError(t, tx.Rollback())

	events, err := l.QueryByEntity(ctx, "booking", "1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSnapshotPayload(t *testing.T) {
	rec := entity.Record{
		"id":    entity.Int(1),
		"name":  entity.Text("Room A"),
		"price": entity.MustDecimal("100"),
	}

	payload, err := SnapshotPayload(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"Room A","price":100}`, payload)
}

func TestDiffPayload(t *testing.T) {
	payload, err := DiffPayload(map[string]FieldChange{
		"price": {Old: entity.MustDecimal("100"), New: entity.MustDecimal("120")},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"price":{"new":120,"old":100}}`, payload)
}

func TestDiffPayloadSortedFields(t *testing.T) {
	payload, err := DiffPayload(map[string]FieldChange{
		"name":  {Old: entity.Text("Room A"), New: entity.Text("Room B")},
		"price": {Old: entity.MustDecimal("100"), New: entity.MustDecimal("120")},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":{"new":"Room B","old":"Room A"},"price":{"new":120,"old":100}}`,
		payload)
}
