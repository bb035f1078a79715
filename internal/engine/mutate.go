package engine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/acme/bookkeeper/internal/entity"
	"github.com/acme/bookkeeper/internal/eventlog"
	"github.com/acme/bookkeeper/internal/sqlgen"
)

// Create inserts a new record and appends its Created event atomically.
//
// The payload must supply every non-nullable field except an
// auto-generated primary key (which must NOT be supplied - the store
// assigns it) and a version field (which must not be supplied either
// and always starts at 1). The returned
// record is the full field set, including the assigned key and nulls for
// omitted nullable fields, exactly matching the event's snapshot.
func (e *Engine) Create(ctx context.Context, name string, payload map[string]any, actor string) (entity.Record, error) {
	d, err := e.mutableDescriptor(name)
	if err != nil {
		return nil, err
	}

	rec, err := entity.CoerceRecord(d, payload)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}

	pk := d.PrimaryKey()
	for _, f := range d.Fields {
		_, supplied := rec[f.Name]
		switch {
		case f.AutoGenerate && supplied:
			return nil, ValidationErrorf(name, "field %q is auto-generated and must not be supplied", f.Name)
		case f.Version && supplied:
			return nil, ValidationErrorf(name, "field %q is version-managed and must not be supplied", f.Name)
		case f.Version:
			rec[f.Name] = entity.Int(1)
		case !f.Nullable && !f.AutoGenerate && !supplied:
			return nil, ValidationErrorf(name, "required field %q missing", f.Name)
		}
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, connectionError("begin create", err)
	}
	defer tx.Rollback() // No-op if committed

	insertSQL, params, err := sqlgen.Insert(d, rec)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}
	res, err := tx.ExecContext(ctx, insertSQL, params...)
	if err != nil {
		return nil, storageError(name, "insert row", err)
	}

	if pk.AutoGenerate {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, storageError(name, "read assigned key", err)
		}
		rec[pk.Name] = entity.Int(id)
	}

	// Snapshot covers the full field set; omitted nullables appear as null.
	full := rec.Clone()
	for _, f := range d.Fields {
		if _, ok := full[f.Name]; !ok {
			full[f.Name] = entity.Null{}
		}
	}

	key := entity.KeyString(full[pk.Name])
	if err := e.appendEvent(ctx, tx, d, key, eventlog.KindCreated, actor, full, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(name, "commit create", err)
	}

	e.logger.Debug("created", "entity", name, "key", key, "actor", actor)
	return full, nil
}

// Update changes the supplied fields of an existing record and appends an
// Updated event carrying the old/new diff of actually-changed fields, all
// in one transaction.
//
// A missing row fails with NOT_FOUND and produces no event. When the
// descriptor declares a version field, the payload must supply the current
// version; a mismatch fails with CONFLICT and the engine increments the
// version on success. A payload that changes nothing is a no-op: no row
// write, no event.
func (e *Engine) Update(ctx context.Context, name string, key any, payload map[string]any, actor string) (entity.Record, error) {
	d, err := e.mutableDescriptor(name)
	if err != nil {
		return nil, err
	}
	pkVal, err := coerceKey(d, key)
	if err != nil {
		return nil, err
	}
	keyStr := entity.KeyString(pkVal)

	changes, err := entity.CoerceRecord(d, payload)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}

	pk := d.PrimaryKey()
	if supplied, ok := changes[pk.Name]; ok {
		if !entity.Equal(supplied, pkVal) {
			return nil, ValidationErrorf(name, "primary key cannot be changed")
		}
		delete(changes, pk.Name)
	}

	var suppliedVersion entity.Value
	vf, hasVersion := d.VersionField()
	if hasVersion {
		v, ok := changes[vf.Name]
		if !ok {
			return nil, ValidationErrorf(name, "version field %q required for update", vf.Name)
		}
		suppliedVersion = v
		delete(changes, vf.Name)
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, connectionError("begin update", err)
	}
	defer tx.Rollback()

	current, err := e.readRow(ctx, tx, d, pkVal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError(name, keyStr)
		}
		return nil, storageError(name, "read current row", err)
	}

	if hasVersion {
		currentVersion := current[vf.Name].(entity.Int)
		if !entity.Equal(suppliedVersion, currentVersion) {
			return nil, ConflictError(name, keyStr, int64(suppliedVersion.(entity.Int)), int64(currentVersion))
		}
	}

	diff := make(map[string]eventlog.FieldChange)
	updated := make(entity.Record)
	for fname, newVal := range changes {
		if entity.Equal(current[fname], newVal) {
			continue
		}
		diff[fname] = eventlog.FieldChange{Old: current[fname], New: newVal}
		updated[fname] = newVal
	}

	if len(diff) == 0 {
		// Nothing actually changed: no row write, no event.
		return current, nil
	}

	if hasVersion {
		next := current[vf.Name].(entity.Int) + 1
		diff[vf.Name] = eventlog.FieldChange{Old: current[vf.Name], New: next}
		updated[vf.Name] = next
	}

	updateSQL, params, err := sqlgen.Update(d, pkVal, updated)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}
	if _, err := tx.ExecContext(ctx, updateSQL, params...); err != nil {
		return nil, storageError(name, "update row", err)
	}

	if err := e.appendEvent(ctx, tx, d, keyStr, eventlog.KindUpdated, actor, nil, diff); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(name, "commit update", err)
	}

	result := current.Clone()
	for fname, v := range updated {
		result[fname] = v
	}
	e.logger.Debug("updated", "entity", name, "key", keyStr, "fields", len(diff), "actor", actor)
	return result, nil
}

// Delete removes an existing record and appends a Deleted event carrying
// the last known full snapshot, atomically. A missing row fails with
// NOT_FOUND and produces no event. Returns the pre-delete snapshot.
func (e *Engine) Delete(ctx context.Context, name string, key any, actor string) (entity.Record, error) {
	d, err := e.mutableDescriptor(name)
	if err != nil {
		return nil, err
	}
	pkVal, err := coerceKey(d, key)
	if err != nil {
		return nil, err
	}
	keyStr := entity.KeyString(pkVal)

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, connectionError("begin delete", err)
	}
	defer tx.Rollback()

	current, err := e.readRow(ctx, tx, d, pkVal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError(name, keyStr)
		}
		return nil, storageError(name, "read current row", err)
	}

	deleteSQL, params, err := sqlgen.Delete(d, pkVal)
	if err != nil {
		return nil, ValidationErrorf(name, "%v", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL, params...); err != nil {
		return nil, storageError(name, "delete row", err)
	}

	if err := e.appendEvent(ctx, tx, d, keyStr, eventlog.KindDeleted, actor, current, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(name, "commit delete", err)
	}

	e.logger.Debug("deleted", "entity", name, "key", keyStr, "actor", actor)
	return current, nil
}

// readRow reads the current row state inside the operation's transaction.
func (e *Engine) readRow(ctx context.Context, tx *sql.Tx, d *entity.Descriptor, key entity.Value) (entity.Record, error) {
	query, params, err := sqlgen.SelectByKey(d, key)
	if err != nil {
		return nil, err
	}
	return scanRecord(d, tx.QueryRowContext(ctx, query, params...))
}

// appendEvent builds and appends the single lifecycle event for one
// mutation, inside that mutation's transaction. Exactly one of snapshot
// (created/deleted) or diff (updated) is set.
func (e *Engine) appendEvent(
	ctx context.Context,
	tx *sql.Tx,
	d *entity.Descriptor,
	key string,
	kind eventlog.Kind,
	actor string,
	snapshot entity.Record,
	diff map[string]eventlog.FieldChange,
) error {
	var payload string
	var err error
	if kind == eventlog.KindUpdated {
		payload, err = eventlog.DiffPayload(diff)
	} else {
		payload, err = eventlog.SnapshotPayload(snapshot)
	}
	if err != nil {
		return storageError(d.Name, "serialize event payload", err)
	}

	ev := eventlog.Event{
		ID:        e.newEventID(),
		Entity:    d.Name,
		Key:       key,
		Kind:      kind,
		Timestamp: e.now(),
		Seq:       e.clock.Next(),
		Actor:     actor,
		Payload:   payload,
	}
	if err := e.events.Append(ctx, tx, ev); err != nil {
		return storageError(d.Name, "append lifecycle event", err)
	}
	return nil
}
