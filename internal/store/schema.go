package store

import (
	"context"
	"fmt"

	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/sqlgen"
)

// EnsureSchema makes sure a table exists for every descriptor, creating
// missing tables and verifying existing ones.
//
// Idempotent: calling it N times yields the same schema as calling it
// once. Additive-only: existing columns are never dropped or altered.
// Columns present in the table but absent from the descriptor are
// tolerated; a declared column that is missing, or stored under a
// different type, is schema drift and fails the call.
func (s *Store) EnsureSchema(ctx context.Context, descriptors []*entity.Descriptor) error {
	for _, d := range descriptors {
		if err := s.ensureTable(ctx, d); err != nil {
			return fmt.Errorf("ensure schema for %q: %w", d.Name, err)
		}
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, d *entity.Descriptor) error {
	ddl, err := sqlgen.CreateTable(d)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return s.verifyColumns(ctx, d)
}

// verifyColumns compares the live table against the descriptor.
// CREATE TABLE IF NOT EXISTS is a no-op on existing tables, so a table
// created under an older descriptor can silently diverge; this check turns
// that divergence into a startup failure instead of runtime query errors.
func (s *Store) verifyColumns(ctx context.Context, d *entity.Descriptor) error {
	// Identifier is validated by sqlgen.CreateTable above; PRAGMA
	// arguments cannot be bound as parameters.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.Name))
	if err != nil {
		return fmt.Errorf("inspect table: %w", err)
	}
	defer rows.Close()

	type column struct {
		name    string
		sqlType string
	}
	live := make(map[string]column)
	for rows.Next() {
		var (
			cid        int
			name       string
			sqlType    string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &sqlType, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		live[name] = column{name: name, sqlType: sqlType}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	for _, f := range d.Fields {
		col, ok := live[f.Name]
		if !ok {
			return fmt.Errorf("schema drift: column %q missing from table %q", f.Name, d.Name)
		}
		want, err := sqlgen.ColumnType(f.Type)
		if err != nil {
			return err
		}
		if col.sqlType != want {
			return fmt.Errorf("schema drift: column %q in table %q is %s, descriptor declares %s",
				f.Name, d.Name, col.sqlType, want)
		}
	}

	return nil
}
