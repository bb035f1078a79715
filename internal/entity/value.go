package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface over the typed values a field can hold.
// Only Null, Int, Text, Bool, Decimal, and Timestamp implement it.
// Plain floats never appear - decimal fields use exact apd decimals.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the explicit null value for nullable fields.
type Null struct{}

func (Null) value() {}

// Int is an integer value. Always int64.
type Int int64

func (Int) value() {}

// Text is a string value.
type Text string

func (Text) value() {}

// Bool is a boolean value. Stored as INTEGER 0/1.
type Bool bool

func (Bool) value() {}

// Timestamp is a point-in-time value. Stored as RFC 3339 TEXT in UTC.
type Timestamp time.Time

func (Timestamp) value() {}

// Decimal is an exact arbitrary-precision decimal value.
// Stored as TEXT so values like prices never pass through binary floats.
type Decimal struct {
	dec *apd.Decimal
}

func (Decimal) value() {}

// NewDecimal parses a decimal from its text representation.
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{dec: d}, nil
}

// MustDecimal parses a decimal or panics. For tests and fixed constants.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the decimal in plain (non-exponent) notation.
func (d Decimal) String() string {
	if d.dec == nil {
		return "0"
	}
	return d.dec.Text('f')
}

// Cmp compares two decimals: -1, 0, or +1.
func (d Decimal) Cmp(other Decimal) int {
	a, b := d.dec, other.dec
	if a == nil {
		a = apd.New(0, 0)
	}
	if b == nil {
		b = apd.New(0, 0)
	}
	return a.Cmp(b)
}

// Equal reports whether two values are equal.
// Decimals compare numerically (2.50 == 2.5); timestamps compare as instants.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Timestamp:
		bv, ok := b.(Timestamp)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Decimal:
		bv, ok := b.(Decimal)
		return ok && av.Cmp(bv) == 0
	default:
		return false
	}
}

// Coerce converts untyped input (JSON/YAML shaped) to a typed Value for the
// given field type. Inputs that cannot represent the type exactly are
// rejected - a fractional float never silently becomes an Int.
func Coerce(ft FieldType, raw any) (Value, error) {
	if raw == nil {
		return Null{}, nil
	}
	if v, ok := raw.(Value); ok {
		if _, isNull := v.(Null); isNull {
			return v, nil
		}
		if TypeOf(v) != ft {
			return nil, fmt.Errorf("value type %s does not match field type %s", TypeOf(v), ft)
		}
		return v, nil
	}

	switch ft {
	case TypeInteger:
		return coerceInt(raw)
	case TypeText:
		if s, ok := raw.(string); ok {
			return Text(s), nil
		}
		return nil, fmt.Errorf("cannot coerce %T to text", raw)
	case TypeBoolean:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
		return nil, fmt.Errorf("cannot coerce %T to boolean", raw)
	case TypeDecimal:
		return coerceDecimal(raw)
	case TypeTimestamp:
		return coerceTimestamp(raw)
	default:
		return nil, fmt.Errorf("unsupported field type %q", ft)
	}
}

func coerceInt(raw any) (Value, error) {
	switch v := raw.(type) {
	case int:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case string:
		// Keys arrive as strings from the command line.
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to integer", v)
		}
		return Int(n), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to integer: %w", v.String(), err)
		}
		return Int(n), nil
	case float64:
		// YAML and plain JSON decoding hand integers over as float64.
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce fractional value %v to integer", v)
		}
		return Int(int64(v)), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer", raw)
	}
}

func coerceDecimal(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return NewDecimal(v)
	case json.Number:
		return NewDecimal(v.String())
	case int:
		return NewDecimal(strconv.Itoa(v))
	case int64:
		return NewDecimal(strconv.FormatInt(v, 10))
	case float64:
		return NewDecimal(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return nil, fmt.Errorf("cannot coerce %T to decimal", raw)
	}
}

func coerceTimestamp(raw any) (Value, error) {
	switch v := raw.(type) {
	case time.Time:
		return Timestamp(v.UTC()), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to timestamp: %w", v, err)
		}
		return Timestamp(t.UTC()), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to timestamp", raw)
	}
}

// TypeOf returns the field type a value belongs to.
// Null has no type of its own and reports TypeText; callers must treat
// Null specially before asking.
func TypeOf(v Value) FieldType {
	switch v.(type) {
	case Int:
		return TypeInteger
	case Text, Null:
		return TypeText
	case Bool:
		return TypeBoolean
	case Decimal:
		return TypeDecimal
	case Timestamp:
		return TypeTimestamp
	default:
		return TypeText
	}
}

// Param converts a value to its database/sql binding representation.
// Values are ALWAYS bound as parameters, never interpolated into SQL.
func Param(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Int:
		return int64(val)
	case Text:
		return string(val)
	case Bool:
		return bool(val)
	case Decimal:
		return val.String()
	case Timestamp:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	default:
		return nil
	}
}

// FromStored converts a scanned database value back to a typed Value
// according to the field's declared type.
func FromStored(ft FieldType, raw any) (Value, error) {
	if raw == nil {
		return Null{}, nil
	}
	switch ft {
	case TypeInteger:
		switch v := raw.(type) {
		case int64:
			return Int(v), nil
		case int:
			return Int(v), nil
		}
	case TypeText:
		switch v := raw.(type) {
		case string:
			return Text(v), nil
		case []byte:
			return Text(v), nil
		}
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return Bool(v), nil
		case int64:
			return Bool(v != 0), nil
		}
	case TypeDecimal:
		switch v := raw.(type) {
		case string:
			return NewDecimal(v)
		case []byte:
			return NewDecimal(string(v))
		case int64:
			return NewDecimal(strconv.FormatInt(v, 10))
		}
	case TypeTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return Timestamp(v.UTC()), nil
		case string:
			return coerceTimestamp(v)
		case []byte:
			return coerceTimestamp(string(v))
		}
	}
	return nil, fmt.Errorf("stored value %T cannot be read as %s", raw, ft)
}

// KeyString renders a primary-key value as its stable string form, used to
// key lifecycle events across entity types.
func KeyString(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Text:
		return string(val)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Decimal:
		return val.String()
	case Timestamp:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Plain converts a value to a JSON-friendly Go representation for output.
// Decimals become json.Number to preserve exactness through encoding/json.
func Plain(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Int:
		return int64(val)
	case Text:
		return string(val)
	case Bool:
		return bool(val)
	case Decimal:
		return json.Number(val.String())
	case Timestamp:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	default:
		return nil
	}
}
