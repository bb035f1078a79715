package sqlgen

import (
	"fmt"
	"strings"

	"github.com/acme/bookkeeper/internal/entity"
)

// Insert compiles an INSERT for the fields present in rec.
// Columns appear in descriptor order so statement text is deterministic.
// Fields absent from rec (an auto-generated key, omitted nullables) are
// left to the store's defaults.
func Insert(d *entity.Descriptor, rec entity.Record) (string, []any, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", nil, err
	}

	var cols []string
	var params []any
	for _, f := range d.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.Name)
		params = append(params, entity.Param(v))
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no fields to write", d.Name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Name,
		strings.Join(cols, ", "),
		placeholders,
	)
	return sql, params, nil
}

// Update compiles an UPDATE of the fields present in changes, targeted by
// primary key. The primary key itself is never in the SET list.
func Update(d *entity.Descriptor, key entity.Value, changes entity.Record) (string, []any, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", nil, err
	}

	pk := d.PrimaryKey().Name
	var sets []string
	var params []any
	for _, f := range d.Fields {
		if f.Name == pk {
			continue
		}
		v, ok := changes[f.Name]
		if !ok {
			continue
		}
		sets = append(sets, f.Name+" = ?")
		params = append(params, entity.Param(v))
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("update %s: no fields to change", d.Name)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		d.Name,
		strings.Join(sets, ", "),
		pk,
	)
	params = append(params, entity.Param(key))
	return sql, params, nil
}

// Delete compiles a DELETE by primary key.
func Delete(d *entity.Descriptor, key entity.Value) (string, []any, error) {
	if err := checkIdentifiers(d); err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", d.Name, d.PrimaryKey().Name)
	return sql, []any{entity.Param(key)}, nil
}
