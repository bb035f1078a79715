package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bookingDescriptor is the reference entity used across test suites.
func bookingDescriptor() *Descriptor {
	return &Descriptor{
		Name: "booking",
		Fields: []Field{
			{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoGenerate: true},
			{Name: "name", Type: TypeText},
			{Name: "price", Type: TypeDecimal},
		},
	}
}

func TestDescriptorValidate(t *testing.T) {
	require.NoError(t, bookingDescriptor().Validate())
}

func TestDescriptorValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
	}{
		{"empty name", Descriptor{Fields: []Field{{Name: "id", Type: TypeInteger, PrimaryKey: true}}}},
		{"bad name", Descriptor{Name: "x; DROP TABLE", Fields: []Field{{Name: "id", Type: TypeInteger, PrimaryKey: true}}}},
		{"no fields", Descriptor{Name: "empty"}},
		{"no primary key", Descriptor{Name: "t", Fields: []Field{{Name: "a", Type: TypeText}}}},
		{"two primary keys", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeInteger, PrimaryKey: true},
			{Name: "b", Type: TypeInteger, PrimaryKey: true},
		}}},
		{"nullable primary key", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeInteger, PrimaryKey: true, Nullable: true},
		}}},
		{"duplicate field", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeInteger, PrimaryKey: true},
			{Name: "a", Type: TypeText},
		}}},
		{"bad field identifier", Descriptor{Name: "t", Fields: []Field{
			{Name: "a b", Type: TypeInteger, PrimaryKey: true},
		}}},
		{"unknown type", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: "float", PrimaryKey: true},
		}}},
		{"auto on text", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeText, PrimaryKey: true, AutoGenerate: true},
		}}},
		{"version on text", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeInteger, PrimaryKey: true},
			{Name: "v", Type: TypeText, Version: true},
		}}},
		{"nullable version", Descriptor{Name: "t", Fields: []Field{
			{Name: "a", Type: TypeInteger, PrimaryKey: true},
			{Name: "v", Type: TypeInteger, Version: true, Nullable: true},
		}}},
		{"order_by unknown field", Descriptor{
			Name:    "t",
			Fields:  []Field{{Name: "a", Type: TypeInteger, PrimaryKey: true}},
			OrderBy: "missing",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.desc.Validate())
		})
	}
}

func TestDescriptorAccessors(t *testing.T) {
	d := bookingDescriptor()

	assert.Equal(t, "id", d.PrimaryKey().Name)
	assert.Equal(t, "id", d.OrderField())
	assert.Equal(t, []string{"id", "name", "price"}, d.FieldNames())

	f, ok := d.Field("price")
	require.True(t, ok)
	assert.Equal(t, TypeDecimal, f.Type)

	_, ok = d.Field("missing")
	assert.False(t, ok)

	_, ok = d.VersionField()
	assert.False(t, ok)
}

func TestDescriptorOrderBy(t *testing.T) {
	d := bookingDescriptor()
	d.OrderBy = "name"
	require.NoError(t, d.Validate())
	assert.Equal(t, "name", d.OrderField())
}
