package engine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/sqlgen"
)

const (
	// MaxPageSize is the hard ceiling on query page size. Requests above
	// it are rejected, never clamped: silently returning fewer rows than
	// asked would corrupt a caller's pagination without an error.
	MaxPageSize = 1000

	// DefaultPageSize applies when a query leaves the page size unset.
	DefaultPageSize = 100
)

// Page selects a result window. Zero Size means DefaultPageSize.
type Page struct {
	Size   int
	Offset int
}

// Query reads records of one entity type matching the given equality
// filters, in stable order (descriptor default order, primary key
// tiebreak).
//
// Filter keys must name descriptor fields; an unknown key fails with
// VALIDATION before any storage is touched. Filter values bind as typed
// parameters, never as SQL text.
func (e *Engine) Query(ctx context.Context, name string, filters map[string]any, page Page) ([]entity.Record, error) {
	d, err := e.descriptor(name)
	if err != nil {
		return nil, err
	}

	if page.Size == 0 {
		page.Size = DefaultPageSize
	}
	if page.Size < 0 || page.Offset < 0 {
		return nil, ValidationErrorf(name, "page size and offset must not be negative")
	}
	if page.Size > MaxPageSize {
		return nil, ValidationErrorf(name, "page size %d exceeds maximum %d", page.Size, MaxPageSize)
	}

	typed := make(map[string]entity.Value, len(filters))
	for k, raw := range filters {
		f, ok := d.Field(k)
		if !ok {
			return nil, ValidationErrorf(name, "unknown filter field %q", k)
		}
		v, err := entity.Coerce(f.Type, raw)
		if err != nil {
			return nil, ValidationErrorf(name, "filter %q: %v", k, err)
		}
		typed[k] = v
	}

	query, params, err := sqlgen.Select(d, typed, sqlgen.Page{Limit: page.Size, Offset: page.Offset})
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}

	rows, err := e.store.DB().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, storageError(name, "query", err)
	}
	defer rows.Close()

	records := []entity.Record{}
	for rows.Next() {
		rec, err := scanRecord(d, rows)
		if err != nil {
			return nil, storageError(name, "scan row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(name, "iterate rows", err)
	}

	return records, nil
}

// Get reads a single record by primary key.
// Fails with NOT_FOUND when no row exists under the key.
func (e *Engine) Get(ctx context.Context, name string, key any) (entity.Record, error) {
	d, err := e.descriptor(name)
	if err != nil {
		return nil, err
	}
	pkVal, err := coerceKey(d, key)
	if err != nil {
		return nil, err
	}

	query, params, err := sqlgen.SelectByKey(d, pkVal)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}

	rec, err := scanRecord(d, e.store.DB().QueryRowContext(ctx, query, params...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError(name, entity.KeyString(pkVal))
		}
		return nil, storageError(name, "read row", err)
	}
	return rec, nil
}
