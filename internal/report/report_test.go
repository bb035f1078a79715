package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/bookkeeper/internal/engine"
	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/store"
	"github.com/acme/bookkeeper/internal/testutil"
)

func setup(t *testing.T) (*engine.Engine, *Reporter) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := entity.NewRegistry()
	require.NoError(t, reg.Register(&entity.Descriptor{
		Name: "booking",
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeInteger, PrimaryKey: true, AutoGenerate: true},
			{Name: "name", Type: entity.TypeText},
			{Name: "price", Type: entity.TypeDecimal},
		},
	}))

	events := eventlog.New(s.DB())
	eng := engine.New(s, reg, events,
		engine.WithNowFunc(testutil.NewTimeSource(testutil.Epoch, time.Second).Now),
		engine.WithEventIDFunc(testutil.SequentialIDs("evt")),
	)
	require.NoError(t, eng.Start(context.Background()))

	return eng, New(events)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	eng, rep := setup(t)

	_, err := eng.Create(ctx, "booking", map[string]any{"name": "Room A", "price": 100}, "alice")
	require.NoError(t, err)
	_, err = eng.Update(ctx, "booking", 1, map[string]any{"price": 120}, "bob")
	require.NoError(t, err)
	_, err = eng.Delete(ctx, "booking", 1, "alice")
	require.NoError(t, err)

	history, err := rep.History(ctx, "booking", "1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, eventlog.KindCreated, history[0].Kind)
	assert.Equal(t, eventlog.KindUpdated, history[1].Kind)
	assert.Equal(t, eventlog.KindDeleted, history[2].Kind)
}

func TestHistoryUnknownKey(t *testing.T) {
	ctx := context.Background()
	_, rep := setup(t)

	history, err := rep.History(ctx, "booking", "404")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	eng, rep := setup(t)

	for _, name := range []string{"Room A", "Room B", "Room C"} {
		_, err := eng.Create(ctx, "booking", map[string]any{"name": name, "price": 50}, "")
		require.NoError(t, err)
	}

	recent, err := rep.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].Key)
	assert.Equal(t, "2", recent[1].Key)
}

func TestRecentLimitValidation(t *testing.T) {
	ctx := context.Background()
	_, rep := setup(t)

	for _, limit := range []int{0, -1, 1001, 5000} {
		_, err := rep.Recent(ctx, limit)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, engine.IsValidation(err), "limit %d: got %v", limit, err)
	}

	_, err := rep.Recent(ctx, eventlog.MaxRecentLimit)
	require.NoError(t, err)
}

func TestActivity(t *testing.T) {
	ctx := context.Background()
	eng, rep := setup(t)

	_, err := eng.Create(ctx, "booking", map[string]any{"name": "Room A", "price": 100}, "alice")
	require.NoError(t, err)
	_, err = eng.Update(ctx, "booking", 1, map[string]any{"price": 120}, "bob")
	require.NoError(t, err)

	lines, err := rep.Activity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-01-01T00:00:01Z bob updated booking 1 (price: 100 -> 120)", lines[0])
	assert.Equal(t, "2024-01-01T00:00:00Z alice created booking 1 (3 fields)", lines[1])
}

func TestSummarizeAnonymousActor(t *testing.T) {
	ev := eventlog.Event{
		Entity:    "booking",
		Key:       "7",
		Kind:      eventlog.KindDeleted,
		Timestamp: testutil.Epoch,
		Payload:   `{"id":7}`,
	}
	assert.Equal(t, "2024-01-01T00:00:00Z - deleted booking 7 (1 field)", Summarize(ev))
}
