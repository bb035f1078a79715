package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/bookkeeper/internal/entity"
)

func seedBookings(t *testing.T, rig *testRig, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		price := "50"
		if i%2 == 0 {
			price = "100"
		}
		_, err := rig.engine.Create(context.Background(), "booking",
			map[string]any{"name": fmt.Sprintf("Room %02d", i), "price": price}, "")
		require.NoError(t, err)
	}
}

func TestQueryAll(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	seedBookings(t, rig, 5)

	records, err := rig.engine.Query(ctx, "booking", nil, Page{})
	require.NoError(t, err)
	require.Len(t, records, 5)

	// Stable primary key order.
	for i, rec := range records {
		assert.True(t, entity.Equal(entity.Int(i+1), rec["id"]))
	}
}

func TestQueryFilter(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	seedBookings(t, rig, 6)

	records, err := rig.engine.Query(ctx, "booking", map[string]any{"price": 100}, Page{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.True(t, entity.Equal(entity.MustDecimal("100"), rec["price"]))
	}

	// Decimal filters match values, not lexemes: 100.0 finds rows stored
	// from the literal 100.
	records, err = rig.engine.Query(ctx, "booking", map[string]any{"price": "100.0"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, records, "text form differs, equality is on stored text")
}

func TestQueryEmptyResult(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	records, err := rig.engine.Query(ctx, "booking", map[string]any{"name": "nope"}, Page{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestQueryPagination(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	seedBookings(t, rig, 10)

	page1, err := rig.engine.Query(ctx, "booking", nil, Page{Size: 4})
	require.NoError(t, err)
	require.Len(t, page1, 4)
	assert.True(t, entity.Equal(entity.Int(1), page1[0]["id"]))

	page2, err := rig.engine.Query(ctx, "booking", nil, Page{Size: 4, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page2, 4)
	assert.True(t, entity.Equal(entity.Int(5), page2[0]["id"]))

	page3, err := rig.engine.Query(ctx, "booking", nil, Page{Size: 4, Offset: 8})
	require.NoError(t, err)
	require.Len(t, page3, 2)
}

func TestQueryPageSizeLimits(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	tests := []struct {
		name string
		page Page
	}{
		{"over maximum", Page{Size: 5000}},
		{"just over maximum", Page{Size: MaxPageSize + 1}},
		{"negative size", Page{Size: -1}},
		{"negative offset", Page{Offset: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rig.engine.Query(ctx, "booking", nil, tt.page)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	// The maximum itself is allowed.
	_, err := rig.engine.Query(ctx, "booking", nil, Page{Size: MaxPageSize})
	require.NoError(t, err)

	// Rejection is stable across repeated identical requests.
	for i := 0; i < 3; i++ {
		_, err := rig.engine.Query(ctx, "booking", nil, Page{Size: 5000})
		assert.True(t, IsValidation(err))
	}
}

func TestQueryUnknownFilterField(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	seedBookings(t, rig, 1)

	_, err := rig.engine.Query(ctx, "booking", map[string]any{"rating": 5}, Page{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	seedBookings(t, rig, 2)

	rec, err := rig.engine.Get(ctx, "booking", 2)
	require.NoError(t, err)
	assert.True(t, entity.Equal(entity.Text("Room 02"), rec["name"]))

	// String keys coerce to the descriptor's key type.
	rec, err = rig.engine.Get(ctx, "booking", "2")
	require.NoError(t, err)
	assert.True(t, entity.Equal(entity.Int(2), rec["id"]))

	_, err = rig.engine.Get(ctx, "booking", 99)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestQueryNullFilter(t *testing.T) {
	ctx := context.Background()
	d := &entity.Descriptor{
		Name: "note",
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeInteger, PrimaryKey: true, AutoGenerate: true},
			{Name: "body", Type: entity.TypeText},
			{Name: "tag", Type: entity.TypeText, Nullable: true},
		},
	}
	rig := newTestRig(t, d)

	_, err := rig.engine.Create(ctx, "note", map[string]any{"body": "a", "tag": "x"}, "")
	require.NoError(t, err)
	_, err = rig.engine.Create(ctx, "note", map[string]any{"body": "b"}, "")
	require.NoError(t, err)

	records, err := rig.engine.Query(ctx, "note", map[string]any{"tag": nil}, Page{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, entity.Equal(entity.Text("b"), records[0]["body"]))
}
