package entity

import (
	"fmt"
	"regexp"
)

// FieldType is the semantic type of a descriptor field.
type FieldType string

const (
	TypeInteger   FieldType = "integer"
	TypeText      FieldType = "text"
	TypeTimestamp FieldType = "timestamp"
	TypeBoolean   FieldType = "boolean"
	TypeDecimal   FieldType = "decimal"
)

// validFieldTypes enumerates every supported FieldType.
var validFieldTypes = map[FieldType]bool{
	TypeInteger:   true,
	TypeText:      true,
	TypeTimestamp: true,
	TypeBoolean:   true,
	TypeDecimal:   true,
}

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to use as a table or column name.
func ValidIdentifier(s string) bool {
	return validIdentifier.MatchString(s)
}

// Field describes one column of a persisted record type.
type Field struct {
	// Name is the field (and column) name. Must be a valid SQL identifier.
	Name string

	// Type is the semantic type of the field.
	Type FieldType

	// Nullable allows NULL values. The primary key is never nullable.
	Nullable bool

	// PrimaryKey marks the single primary key field.
	PrimaryKey bool

	// AutoGenerate lets the store assign the primary key on insert.
	// Only valid on an integer primary key.
	AutoGenerate bool

	// Version opts the descriptor into optimistic concurrency: updates
	// must supply the current value and the engine increments it on every
	// successful update. Only valid on a non-nullable integer field.
	Version bool
}

// Descriptor is the immutable metadata for one persisted record type.
// Construct at startup, validate with Validate, then register; never
// mutate afterwards.
type Descriptor struct {
	// Name is the entity (and table) name.
	Name string

	// Fields is the ordered column list. Order is preserved in DDL and
	// in generated statements.
	Fields []Field

	// OrderBy optionally names the default result-ordering field.
	// Empty means order by primary key ascending.
	OrderBy string
}

// Validate checks structural invariants. A descriptor that fails
// validation must never reach the registry or the schema initializer.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor name is required")
	}
	if !ValidIdentifier(d.Name) {
		return fmt.Errorf("descriptor name %q is not a valid identifier", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %q has no fields", d.Name)
	}

	seen := make(map[string]bool, len(d.Fields))
	pkCount := 0
	versionCount := 0
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("descriptor %q: field name is required", d.Name)
		}
		if !ValidIdentifier(f.Name) {
			return fmt.Errorf("descriptor %q: field name %q is not a valid identifier", d.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("descriptor %q: duplicate field %q", d.Name, f.Name)
		}
		seen[f.Name] = true

		if !validFieldTypes[f.Type] {
			return fmt.Errorf("descriptor %q: field %q has unsupported type %q", d.Name, f.Name, f.Type)
		}

		if f.PrimaryKey {
			pkCount++
			if f.Nullable {
				return fmt.Errorf("descriptor %q: primary key %q cannot be nullable", d.Name, f.Name)
			}
		}
		if f.AutoGenerate {
			if !f.PrimaryKey || f.Type != TypeInteger {
				return fmt.Errorf("descriptor %q: field %q: auto-generation requires an integer primary key", d.Name, f.Name)
			}
		}
		if f.Version {
			versionCount++
			if f.Type != TypeInteger {
				return fmt.Errorf("descriptor %q: version field %q must be integer", d.Name, f.Name)
			}
			if f.PrimaryKey {
				return fmt.Errorf("descriptor %q: version field %q cannot be the primary key", d.Name, f.Name)
			}
			if f.Nullable {
				return fmt.Errorf("descriptor %q: version field %q cannot be nullable", d.Name, f.Name)
			}
		}
	}

	if pkCount != 1 {
		return fmt.Errorf("descriptor %q: exactly one primary key required, got %d", d.Name, pkCount)
	}
	if versionCount > 1 {
		return fmt.Errorf("descriptor %q: at most one version field allowed, got %d", d.Name, versionCount)
	}

	if d.OrderBy != "" && !seen[d.OrderBy] {
		return fmt.Errorf("descriptor %q: order_by references unknown field %q", d.Name, d.OrderBy)
	}

	return nil
}

// PrimaryKey returns the primary key field.
// Panics if called on an unvalidated descriptor without one.
func (d *Descriptor) PrimaryKey() Field {
	for _, f := range d.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	panic(fmt.Sprintf("descriptor %q has no primary key", d.Name))
}

// Field looks up a field by name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// VersionField returns the optimistic-concurrency field, if declared.
func (d *Descriptor) VersionField() (Field, bool) {
	for _, f := range d.Fields {
		if f.Version {
			return f, true
		}
	}
	return Field{}, false
}

// OrderField returns the field name used for default result ordering:
// OrderBy when declared, otherwise the primary key.
func (d *Descriptor) OrderField() string {
	if d.OrderBy != "" {
		return d.OrderBy
	}
	return d.PrimaryKey().Name
}

// FieldNames returns field names in declaration order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}
