// Package compiler turns CUE entity definitions into descriptors.
//
// Entity definitions are authored in CUE so a deployment can declare its
// data model without recompiling. The compiler validates structure here;
// semantic validation (exactly one primary key, version field rules) is
// the descriptor's job.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/acme/bookkeeper/internal/entity"
)

// CompileEntity parses a CUE value into an entity descriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: booking: { ... }`)
//	d, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.booking")))
func CompileEntity(v cue.Value) (*entity.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &entity.Descriptor{}

	// Entity name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		d.Name = labels[len(labels)-1].String()
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := parseField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, f)
	}

	orderVal := v.LookupPath(cue.ParsePath("order_by"))
	if orderVal.Exists() {
		order, err := orderVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d.OrderBy = order
	}

	if err := d.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "entity." + d.Name,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return d, nil
}

// CompileEntities parses every entity under the top-level "entity" struct,
// in declaration order.
func CompileEntities(v cue.Value) ([]*entity.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entVal := v.LookupPath(cue.ParsePath("entity"))
	if !entVal.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entity definitions found",
			Pos:     v.Pos(),
		}
	}

	var descriptors []*entity.Descriptor
	iter, err := entVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		d, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	if len(descriptors) == 0 {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     entVal.Pos(),
		}
	}
	return descriptors, nil
}

// parseField parses a single field definition.
// Supports shorthand (`name: "text"`) and the structured form
// (`id: { type: "integer", pk: true, auto: true }`).
func parseField(name string, v cue.Value) (entity.Field, error) {
	f := entity.Field{Name: name}

	// Shorthand: the value is a bare type name.
	if typeName, err := v.String(); err == nil {
		ft, err := parseType(typeName, v.Pos())
		if err != nil {
			return f, err
		}
		f.Type = ft
		return f, nil
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return f, &CompileError{
			Field:   name,
			Message: "field type is required",
			Pos:     v.Pos(),
		}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Type, err = parseType(typeName, typeVal.Pos())
	if err != nil {
		return f, err
	}

	for path, dst := range map[string]*bool{
		"nullable": &f.Nullable,
		"pk":       &f.PrimaryKey,
		"auto":     &f.AutoGenerate,
		"version":  &f.Version,
	} {
		flagVal := v.LookupPath(cue.ParsePath(path))
		if !flagVal.Exists() {
			continue
		}
		b, err := flagVal.Bool()
		if err != nil {
			return f, formatCUEError(err)
		}
		*dst = b
	}

	return f, nil
}

func parseType(name string, pos token.Pos) (entity.FieldType, error) {
	switch name {
	case "integer", "int":
		return entity.TypeInteger, nil
	case "text", "string":
		return entity.TypeText, nil
	case "timestamp":
		return entity.TypeTimestamp, nil
	case "boolean", "bool":
		return entity.TypeBoolean, nil
	case "decimal":
		return entity.TypeDecimal, nil
	case "float", "number":
		return "", &CompileError{
			Field:   "type",
			Message: "float types are not supported - use decimal for exact arithmetic",
			Pos:     pos,
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported field type %q", name),
			Pos:     pos,
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
