package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/bookkeeper/internal/entity"
)

func bookingDescriptor() *entity.Descriptor {
	return &entity.Descriptor{
		Name: "booking",
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeInteger, PrimaryKey: true, AutoGenerate: true},
			{Name: "name", Type: entity.TypeText},
			{Name: "price", Type: entity.TypeDecimal},
		},
	}
}

func TestCreateTable(t *testing.T) {
	ddl, err := CreateTable(bookingDescriptor())
	require.NoError(t, err)

	expected := `CREATE TABLE IF NOT EXISTS booking (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    price TEXT NOT NULL
)`
	assert.Equal(t, expected, ddl)
}

func TestCreateTableNullableAndTypes(t *testing.T) {
	d := &entity.Descriptor{
		Name: "reservation",
		Fields: []entity.Field{
			{Name: "ref", Type: entity.TypeText, PrimaryKey: true},
			{Name: "starts", Type: entity.TypeTimestamp},
			{Name: "confirmed", Type: entity.TypeBoolean},
			{Name: "notes", Type: entity.TypeText, Nullable: true},
		},
	}
	require.NoError(t, d.Validate())

	ddl, err := CreateTable(d)
	require.NoError(t, err)

	expected := `CREATE TABLE IF NOT EXISTS reservation (
    ref TEXT PRIMARY KEY,
    starts TEXT NOT NULL,
    confirmed INTEGER NOT NULL,
    notes TEXT
)`
	assert.Equal(t, expected, ddl)
}

func TestSelectNoFilters(t *testing.T) {
	sql, params, err := Select(bookingDescriptor(), nil, Page{Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, price FROM booking ORDER BY id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{int64(100), int64(0)}, params)
}

func TestSelectFiltersSortedAndParameterized(t *testing.T) {
	filters := map[string]entity.Value{
		"price": entity.MustDecimal("100"),
		"name":  entity.Text("Room A"),
	}

	sql, params, err := Select(bookingDescriptor(), filters, Page{Limit: 10, Offset: 20})
	require.NoError(t, err)

	// Filter keys sorted: name before price. Values only ever appear as ?.
	assert.Equal(t,
		"SELECT id, name, price FROM booking WHERE name = ? AND price = ? ORDER BY id ASC LIMIT ? OFFSET ?",
		sql)
	assert.Equal(t, []any{"Room A", "100", int64(10), int64(20)}, params)
	assert.NotContains(t, sql, "Room A")
}

func TestSelectNullFilter(t *testing.T) {
	d := &entity.Descriptor{
		Name: "note",
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeInteger, PrimaryKey: true},
			{Name: "tag", Type: entity.TypeText, Nullable: true},
		},
	}
	require.NoError(t, d.Validate())

	sql, params, err := Select(d, map[string]entity.Value{"tag": entity.Null{}}, Page{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, tag FROM note WHERE tag IS NULL ORDER BY id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{int64(5), int64(0)}, params)
}

func TestSelectUnknownFilterField(t *testing.T) {
	_, _, err := Select(bookingDescriptor(), map[string]entity.Value{"rating": entity.Int(5)}, Page{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown filter field "rating"`)
}

func TestSelectRejectsBadPage(t *testing.T) {
	_, _, err := Select(bookingDescriptor(), nil, Page{Limit: 0})
	assert.Error(t, err)

	_, _, err = Select(bookingDescriptor(), nil, Page{Limit: 10, Offset: -1})
	assert.Error(t, err)
}

func TestSelectAlternateOrder(t *testing.T) {
	d := bookingDescriptor()
	d.OrderBy = "name"

	sql, _, err := Select(d, nil, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, name, price FROM booking ORDER BY name COLLATE BINARY ASC, id ASC LIMIT ? OFFSET ?",
		sql)
}

func TestSelectByKey(t *testing.T) {
	sql, params, err := SelectByKey(bookingDescriptor(), entity.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, price FROM booking WHERE id = ?", sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestInsert(t *testing.T) {
	rec := entity.Record{
		"name":  entity.Text("Room A"),
		"price": entity.MustDecimal("100"),
	}

	sql, params, err := Insert(bookingDescriptor(), rec)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO booking (name, price) VALUES (?, ?)", sql)
	assert.Equal(t, []any{"Room A", "100"}, params)
}

func TestInsertEmpty(t *testing.T) {
	_, _, err := Insert(bookingDescriptor(), entity.Record{})
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	changes := entity.Record{"price": entity.MustDecimal("120")}

	sql, params, err := Update(bookingDescriptor(), entity.Int(1), changes)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE booking SET price = ? WHERE id = ?", sql)
	assert.Equal(t, []any{"120", int64(1)}, params)
}

func TestUpdateSkipsPrimaryKey(t *testing.T) {
	changes := entity.Record{
		"id":   entity.Int(9),
		"name": entity.Text("Room B"),
	}

	sql, params, err := Update(bookingDescriptor(), entity.Int(1), changes)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE booking SET name = ? WHERE id = ?", sql)
	assert.Equal(t, []any{"Room B", int64(1)}, params)
}

func TestUpdateNoChanges(t *testing.T) {
	_, _, err := Update(bookingDescriptor(), entity.Int(1), entity.Record{})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	sql, params, err := Delete(bookingDescriptor(), entity.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM booking WHERE id = ?", sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestRejectsInvalidIdentifiers(t *testing.T) {
	d := &entity.Descriptor{
		Name: "x; DROP TABLE booking",
		Fields: []entity.Field{
			{Name: "id", Type: entity.TypeInteger, PrimaryKey: true},
		},
	}

	_, err := CreateTable(d)
	assert.Error(t, err)

	_, _, err = Select(d, nil, Page{Limit: 1})
	assert.Error(t, err)

	_, _, err = Delete(d, entity.Int(1))
	assert.Error(t, err)
}
