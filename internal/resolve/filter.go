package resolve

import (
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
)

// FilterType returns the type a filter value on path must be assignable
// to. On failure the type degrades to ir.Unknown and the error is returned
// for diagnostics only; callers that keep going must accept any value.
func FilterType(s *ir.Schema, table, path string) (ir.Type, error) {
	res, err := Resolve(s, table, path)
	if err != nil {
		return ir.Unknown{}, err
	}
	return res.Type(), nil
}

// ValueForm is the shape of argument an operator expects.
type ValueForm int

const (
	FormScalar    ValueForm = iota // eq, gt, ...: one comparable value
	FormList                       // in: list of comparable values
	FormPattern                    // like, ilike: text pattern
	FormIs                         // is: null or boolean
	FormContainer                  // cs, cd, ov: array, object or range literal
	FormRange                      // sl, sr, nxl, nxr, adj: range literal
	FormText                       // fts family: query text
	FormRaw                        // filter(): unchecked operator, unchecked value
)

func (f ValueForm) String() string {
	switch f {
	case FormScalar:
		return "scalar"
	case FormList:
		return "list"
	case FormPattern:
		return "pattern"
	case FormIs:
		return "is"
	case FormContainer:
		return "container"
	case FormRange:
		return "range"
	case FormText:
		return "text"
	case FormRaw:
		return "raw"
	default:
		return fmt.Sprintf("ValueForm(%d)", int(f))
	}
}

// CheckValue reports whether v is a legal argument of form against a
// path of type t. A nil error means well-typed. Unknown accepts anything.
func CheckValue(t ir.Type, form ValueForm, v ir.IRValue) error {
	if _, ok := t.(ir.Unknown); ok || t == nil || form == FormRaw {
		return nil
	}

	elem := elemOf(t)
	switch form {
	case FormScalar:
		if ir.Assignable(v, t) {
			return nil
		}
	case FormList:
		arr, ok := v.(ir.IRArray)
		if !ok {
			return mismatch(t, form, v, "expected a list")
		}
		for i, e := range arr {
			if !ir.Assignable(e, elem) {
				return mismatch(t, form, e, fmt.Sprintf("list element %d", i))
			}
		}
		return nil
	case FormPattern, FormText:
		if _, ok := v.(ir.IRString); !ok {
			return mismatch(t, form, v, "expected a string")
		}
		if textual(elem) {
			return nil
		}
		return mismatch(t, form, v, "column is not textual")
	case FormIs:
		switch v.(type) {
		case ir.IRNull:
			return nil
		case ir.IRBool:
			if ir.Assignable(v, elem) {
				return nil
			}
			return mismatch(t, form, v, "column is not boolean")
		}
		return mismatch(t, form, v, "expected null or a boolean")
	case FormContainer:
		switch v.(type) {
		case ir.IRArray, ir.IRObject:
			if isJSON(elem) {
				return nil
			}
			return mismatch(t, form, v, "column is not json")
		case ir.IRString:
			return nil
		}
		return mismatch(t, form, v, "expected an array, object or range literal")
	case FormRange:
		if _, ok := v.(ir.IRString); ok {
			return nil
		}
		return mismatch(t, form, v, "expected a range literal")
	}
	return mismatch(t, form, v, "")
}

func elemOf(t ir.Type) ir.Type {
	if c, ok := t.(ir.Collection); ok {
		return c.Elem
	}
	return t
}

func textual(t ir.Type) bool {
	s, ok := t.(ir.Scalar)
	if !ok {
		_, unknown := t.(ir.Unknown)
		return unknown
	}
	switch s.Name {
	case ir.TypeString, ir.TypeUUID, ir.TypeTimestamp, ir.TypeJSON:
		return true
	}
	return false
}

func isJSON(t ir.Type) bool {
	switch typ := t.(type) {
	case ir.Scalar:
		return typ.Name == ir.TypeJSON
	case ir.Unknown:
		return true
	}
	return false
}

func mismatch(t ir.Type, form ValueForm, v ir.IRValue, detail string) error {
	if detail != "" {
		return fmt.Errorf("%w: %s %s value for %s: %s", ErrNotAssignable, ir.ValueKind(v), form, t, detail)
	}
	return fmt.Errorf("%w: %s value for %s", ErrNotAssignable, ir.ValueKind(v), t)
}
