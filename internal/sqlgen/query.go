package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acme/bookkeeper/internal/entity"
)

// Page bounds a query result window. Limit must be positive by the time a
// statement is generated; ceilings and defaults are the engine's business.
type Page struct {
	Limit  int
	Offset int
}

// Select compiles a filtered, paginated read for a descriptor.
// Filter keys must name descriptor fields; keys are sorted so the same
// filter set always produces the same SQL text. Returns (sql, params).
func Select(d *entity.Descriptor, filters map[string]entity.Value, page Page) (string, []any, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", nil, err
	}
	if page.Limit <= 0 {
		return "", nil, fmt.Errorf("page limit must be positive, got %d", page.Limit)
	}
	if page.Offset < 0 {
		return "", nil, fmt.Errorf("page offset must not be negative, got %d", page.Offset)
	}

	whereSQL, params, err := compileFilters(d, filters)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(d.FieldNames(), ", "),
		d.Name,
		whereSQL,
		orderClause(d),
	)
	params = append(params, int64(page.Limit), int64(page.Offset))

	return sql, params, nil
}

// SelectByKey compiles a single-row read by primary key.
func SelectByKey(d *entity.Descriptor, key entity.Value) (string, []any, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(d.FieldNames(), ", "),
		d.Name,
		d.PrimaryKey().Name,
	)
	return sql, []any{entity.Param(key)}, nil
}

// compileFilters turns a filter map into a WHERE fragment with ? placeholders.
// Keys are sorted for deterministic SQL text. Unknown keys fail before any
// SQL is assembled.
func compileFilters(d *entity.Descriptor, filters map[string]entity.Value) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		if _, ok := d.Field(k); !ok {
			return "", nil, fmt.Errorf("unknown filter field %q for entity %q", k, d.Name)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	params := make([]any, 0, len(keys))
	for _, k := range keys {
		v := filters[k]
		if _, isNull := v.(entity.Null); isNull {
			clauses = append(clauses, k+" IS NULL")
			continue
		}
		clauses = append(clauses, k+" = ?")
		params = append(params, entity.Param(v))
	}

	return " WHERE " + strings.Join(clauses, " AND "), params, nil
}

// orderClause builds the mandatory stable ordering: the descriptor's order
// field ascending, tie-broken by primary key. Text order fields use
// COLLATE BINARY so ordering is identical across SQLite builds.
func orderClause(d *entity.Descriptor) string {
	pk := d.PrimaryKey().Name
	orderField := d.OrderField()

	clause := orderField
	if f, ok := d.Field(orderField); ok && f.Type == entity.TypeText {
		clause += " COLLATE BINARY"
	}
	clause += " ASC"

	if orderField != pk {
		clause += ", " + pk + " ASC"
	}
	return clause
}
