package postgrest

import (
	"errors"
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
)

// ErrAliasedEmbed marks a filter path that names an embedded relation by
// its table name while the select renames it. PostgREST only accepts the
// alias.
var ErrAliasedEmbed = errors.New("embedded relation is aliased")

// FilterTypeError reports a filter whose value does not fit its path.
type FilterTypeError struct {
	Path     string
	Operator Operator
	Value    ir.IRValue
	Expected ir.Type
	Err      error
}

func (e *FilterTypeError) Error() string {
	return fmt.Sprintf("filter %s %s: %v", e.Path, e.Operator, e.Err)
}

func (e *FilterTypeError) Unwrap() error {
	return e.Err
}

// ValueTypeError reports a mutation value that does not fit its column.
type ValueTypeError struct {
	Column   string
	Value    ir.IRValue
	Expected ir.Type
	Err      error
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("column %s: %s value for %s: %v", e.Column, ir.ValueKind(e.Value), e.Expected, e.Err)
}

func (e *ValueTypeError) Unwrap() error {
	return e.Err
}
