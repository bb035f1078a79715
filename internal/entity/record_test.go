package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceRecord(t *testing.T) {
	d := bookingDescriptor()

	rec, err := CoerceRecord(d, map[string]any{
		"name":  "Room A",
		"price": "100",
	})
	require.NoError(t, err)

	assert.True(t, Equal(Text("Room A"), rec["name"]))
	assert.True(t, Equal(MustDecimal("100"), rec["price"]))
	_, hasID := rec["id"]
	assert.False(t, hasID)
}

func TestCoerceRecordUnknownField(t *testing.T) {
	d := bookingDescriptor()

	_, err := CoerceRecord(d, map[string]any{"rating": 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "rating"`)
}

func TestCoerceRecordTypeMismatch(t *testing.T) {
	d := bookingDescriptor()

	_, err := CoerceRecord(d, map[string]any{"name": 42})
	assert.Error(t, err)
}

func TestCoerceRecordNullability(t *testing.T) {
	d := &Descriptor{
		Name: "note",
		Fields: []Field{
			{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoGenerate: true},
			{Name: "body", Type: TypeText},
			{Name: "tag", Type: TypeText, Nullable: true},
		},
	}
	require.NoError(t, d.Validate())

	rec, err := CoerceRecord(d, map[string]any{"body": "x", "tag": nil})
	require.NoError(t, err)
	assert.True(t, Equal(Null{}, rec["tag"]))

	_, err = CoerceRecord(d, map[string]any{"body": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not nullable")
}

func TestRecordClonePlain(t *testing.T) {
	rec := Record{"id": Int(1), "name": Text("Room A"), "price": MustDecimal("120")}

	clone := rec.Clone()
	clone["name"] = Text("Room B")
	assert.True(t, Equal(Text("Room A"), rec["name"]))

	plain := rec.Plain()
	assert.Equal(t, int64(1), plain["id"])
	assert.Equal(t, "Room A", plain["name"])
}
