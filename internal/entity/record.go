package entity

import "fmt"

// Record is one instance of an entity: a mapping from field name to typed
// value conforming to a Descriptor. Records are created and validated on
// every read or write; they are never persisted directly.
type Record map[string]Value

// CoerceRecord converts an untyped payload into a typed Record.
// Every key must name a descriptor field (unknown keys are rejected, which
// is what keeps arbitrary input out of generated SQL), and every value must
// coerce to the field's declared type. Nulls are rejected for non-nullable
// fields.
//
// Presence is not checked here: a partial payload (for updates) coerces
// fine. Required-field checks belong to the create path.
func CoerceRecord(d *Descriptor, raw map[string]any) (Record, error) {
	rec := make(Record, len(raw))
	for name, rv := range raw {
		f, ok := d.Field(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q for entity %q", name, d.Name)
		}
		v, err := Coerce(f.Type, rv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if _, isNull := v.(Null); isNull && !f.Nullable {
			return nil, fmt.Errorf("field %q is not nullable", name)
		}
		rec[name] = v
	}
	return rec, nil
}

// Clone returns a shallow copy. Values are immutable, so sharing them is fine.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Plain converts the record to a JSON-friendly map for output layers.
func (r Record) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = Plain(v)
	}
	return out
}
