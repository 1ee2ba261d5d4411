package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pgshape/internal/ir"
)

// CompileSchema parses the top-level CUE value of a schema package into an
// immutable ir.Schema. Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Tables live under the "table" field:
//
//	table: workspaces: {
//		id:      string @pg(uuid)
//		name:    string | null
//		members: {many: "members"}
//	}
func CompileSchema(v cue.Value) (*ir.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "at least one table is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tables []*ir.Table
	positions := make(map[string]token.Pos)
	for iter.Next() {
		tbl, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
		positions[tbl.Name] = iter.Value().Pos()
	}

	schema, err := ir.NewSchema(tables...)
	if err != nil {
		var schemaErr *ir.SchemaError
		if errors.As(err, &schemaErr) {
			field := "table." + schemaErr.Table
			if schemaErr.Column != "" {
				field += "." + schemaErr.Column
			}
			return nil, &CompileError{
				Field:   field,
				Message: schemaErr.Message,
				Pos:     positions[schemaErr.Table],
			}
		}
		return nil, err
	}
	return schema, nil
}

// CompileTable parses a single table struct. The table name is taken from
// the struct label, e.g. v.LookupPath(cue.ParsePath("table.users")).
func CompileTable(v cue.Value) (*ir.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}
	if name == "" {
		return nil, &CompileError{
			Field:   "table",
			Message: "table name is required",
			Pos:     v.Pos(),
		}
	}

	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "table." + name,
			Message: fmt.Sprintf("table must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []ir.Column
	for iter.Next() {
		col, err := compileColumn(name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	return ir.NewTable(name, cols...), nil
}

// compileColumn maps one CUE field to a column. A struct holding exactly
// one of `one` or `many` is a relationship; everything else is a scalar.
func compileColumn(table, name string, v cue.Value) (ir.Column, error) {
	field := fmt.Sprintf("table.%s.%s", table, name)

	if rel, ok, err := parseRelationship(field, v); err != nil {
		return ir.Column{}, err
	} else if ok {
		return ir.Column{Name: name, Relation: rel}, nil
	}

	kind := v.IncompleteKind()
	nullable := kind&cue.NullKind != 0 && kind != cue.NullKind
	kind &^= cue.NullKind

	typ, err := extractScalarType(field, kind, v)
	if err != nil {
		return ir.Column{}, err
	}

	override, err := pgAttribute(field, v)
	if err != nil {
		return ir.Column{}, err
	}
	if override != "" {
		typ = override
	}

	return ir.Column{Name: name, Type: typ, Nullable: nullable}, nil
}

// parseRelationship reports whether v declares a relationship.
func parseRelationship(field string, v cue.Value) (*ir.Relationship, bool, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, false, nil
	}

	oneVal := v.LookupPath(cue.ParsePath(string(ir.One)))
	manyVal := v.LookupPath(cue.ParsePath(string(ir.Many)))
	if !oneVal.Exists() && !manyVal.Exists() {
		return nil, false, nil
	}
	if oneVal.Exists() && manyVal.Exists() {
		return nil, false, &CompileError{
			Field:   field,
			Message: "relationship must declare exactly one of one or many",
			Pos:     v.Pos(),
		}
	}

	card, targetVal := ir.One, oneVal
	if manyVal.Exists() {
		card, targetVal = ir.Many, manyVal
	}

	count := 0
	iter, err := v.Fields()
	if err != nil {
		return nil, false, formatCUEError(err)
	}
	for iter.Next() {
		count++
	}
	if count != 1 {
		return nil, false, &CompileError{
			Field:   field,
			Message: "relationship struct must contain only its cardinality field",
			Pos:     v.Pos(),
		}
	}

	target, err := targetVal.String()
	if err != nil {
		return nil, false, &CompileError{
			Field:   field + "." + string(card),
			Message: "relationship target must be a concrete table name",
			Pos:     targetVal.Pos(),
		}
	}

	return &ir.Relationship{Target: target, Cardinality: card}, true, nil
}

// extractScalarType converts a CUE kind to a scalar tag.
func extractScalarType(field string, kind cue.Kind, v cue.Value) (ir.ScalarType, error) {
	switch kind {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInteger, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.TypeNumber, nil
	case cue.BoolKind:
		return ir.TypeBoolean, nil
	case cue.StructKind, cue.ListKind:
		return ir.TypeJSON, nil
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", kind),
			Pos:     v.Pos(),
		}
	}
}

// pgAttribute reads an optional @pg(<tag>) override.
func pgAttribute(field string, v cue.Value) (ir.ScalarType, error) {
	attr := v.Attribute("pg")
	if attr.Err() != nil {
		return "", nil
	}
	tag, err := attr.String(0)
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("invalid @pg attribute: %v", err),
			Pos:     v.Pos(),
		}
	}
	typ := ir.ScalarType(tag)
	if !ir.ValidScalarTypes[typ] {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown scalar type %q in @pg attribute", tag),
			Pos:     v.Pos(),
		}
	}
	return typ, nil
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

	// CUE errors may contain multiple errors
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
