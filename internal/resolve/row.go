package resolve

import (
	"github.com/roach88/pgshape/internal/ir"
)

// TypeOf walks a dotted path through a projected row type, matching output
// keys (so aliases are visible). Crossing a collection counts as fan-out
// and the result is wrapped once, as with Resolve. A path that reaches an
// unknown field resolves to unknown.
func TypeOf(row ir.Type, path string) (ir.Type, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return ir.Unknown{}, &PathError{Segments: segments, Index: -1, Err: err}
	}

	current := row
	fanOut := 0
	for i, seg := range segments {
		if c, ok := current.(ir.Collection); ok {
			fanOut++
			current = c.Elem
		}

		switch typ := current.(type) {
		case ir.Unknown:
			return ir.Unknown{}, nil
		case ir.Object:
			field, ok := typ.Shape.Get(seg)
			if !ok {
				return ir.Unknown{}, &PathError{Segments: segments, Index: i, Err: ErrUnknownPathSegment}
			}
			current = field
		default:
			return ir.Unknown{}, &PathError{Segments: segments, Index: i, Err: ErrUnknownPathSegment}
		}
	}

	switch typ := current.(type) {
	case ir.Object:
		return ir.Unknown{}, &PathError{Segments: segments, Index: len(segments) - 1, Err: ErrIncompletePath}
	case ir.Collection:
		if _, nested := typ.Elem.(ir.Object); nested {
			return ir.Unknown{}, &PathError{Segments: segments, Index: len(segments) - 1, Err: ErrIncompletePath}
		}
	}

	if fanOut > 0 {
		if _, already := current.(ir.Collection); !already {
			return ir.Collection{Elem: current}, nil
		}
	}
	return current, nil
}
