package compiler

import (
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/selectexpr"
)

// Validation error codes (E120-E129)
const (
	ErrInvalidTableName  = "E120" // table name is not a select identifier
	ErrInvalidColumnName = "E121" // column name is not a select identifier
	ErrEmptyTable        = "E122" // table declares no columns
	ErrInvalidScalarType = "E123" // unknown scalar type tag
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled schema against the rules NewSchema does not
// enforce. Every table and column name must be addressable from a select
// expression or filter path. Returns all errors found (does not fail-fast),
// ordered by table name then column position.
func Validate(s *ir.Schema) []ValidationError {
	var errs []ValidationError

	for _, t := range s.Tables() {
		if !selectexpr.IsIdentifier(t.Name) {
			errs = append(errs, ValidationError{
				Field:   "table." + t.Name,
				Message: fmt.Sprintf("table name %q cannot appear in a select expression", t.Name),
				Code:    ErrInvalidTableName,
			})
		}

		cols := t.Columns()
		if len(cols) == 0 {
			errs = append(errs, ValidationError{
				Field:   "table." + t.Name,
				Message: "table must declare at least one column",
				Code:    ErrEmptyTable,
			})
		}

		for _, c := range cols {
			field := fmt.Sprintf("table.%s.%s", t.Name, c.Name)
			if !selectexpr.IsIdentifier(c.Name) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("column name %q cannot appear in a select expression", c.Name),
					Code:    ErrInvalidColumnName,
				})
			}
			if !c.IsRelation() && !ir.ValidScalarTypes[c.Type] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("invalid scalar type %q", c.Type),
					Code:    ErrInvalidScalarType,
				})
			}
		}
	}

	return errs
}
