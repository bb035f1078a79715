package sqlgen

import (
	"fmt"
	"strings"

	"github.com/acme/bookkeeper/internal/entity"
)

// ColumnType maps a semantic field type to its SQLite storage class.
// Decimals and timestamps are TEXT: exact decimal text never round-trips
// through floats, and RFC 3339 text sorts chronologically.
func ColumnType(ft entity.FieldType) (string, error) {
	switch ft {
	case entity.TypeInteger:
		return "INTEGER", nil
	case entity.TypeText:
		return "TEXT", nil
	case entity.TypeBoolean:
		return "INTEGER", nil
	case entity.TypeDecimal:
		return "TEXT", nil
	case entity.TypeTimestamp:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("unsupported field type %q", ft)
	}
}

// CreateTable returns idempotent DDL for a descriptor's table.
// Column order follows field declaration order.
func CreateTable(d *entity.Descriptor) (string, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		colType, err := ColumnType(f.Type)
		if err != nil {
			return "", fmt.Errorf("table %s: column %s: %w", d.Name, f.Name, err)
		}

		var b strings.Builder
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(colType)
		switch {
		case f.PrimaryKey && f.AutoGenerate:
			b.WriteString(" PRIMARY KEY AUTOINCREMENT")
		case f.PrimaryKey:
			b.WriteString(" PRIMARY KEY")
		case !f.Nullable:
			b.WriteString(" NOT NULL")
		}
		cols = append(cols, "    "+b.String())
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", d.Name, strings.Join(cols, ",\n")), nil
}

// checkIdentifiers re-validates every identifier a statement will embed.
// Descriptors are validated at registration; this is the generator's own
// guard so no unvalidated descriptor can smuggle identifier text into SQL.
func checkIdentifiers(d *entity.Descriptor) error {
	if !entity.ValidIdentifier(d.Name) {
		return fmt.Errorf("invalid table identifier %q", d.Name)
	}
	for _, f := range d.Fields {
		if !entity.ValidIdentifier(f.Name) {
			return fmt.Errorf("invalid column identifier %q", f.Name)
		}
	}
	return nil
}
