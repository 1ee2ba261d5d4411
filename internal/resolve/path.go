package resolve

import (
	"strings"

	"github.com/roach88/pgshape/internal/ir"
)

// Resolution is the outcome of walking a path from a root table.
type Resolution struct {
	Segments []string
	Table    *ir.Table // table that owns the leaf column
	Column   ir.Column // leaf column, always a scalar
	FanOut   int       // number of Many relationships crossed
}

// Leaf is the declared type of the leaf column.
func (r Resolution) Leaf() ir.Type {
	return ir.ColumnType(r.Column)
}

// Type is the resolved value type. Crossing at least one Many relationship
// wraps the leaf in a collection exactly once, however many Many hops the
// path takes.
func (r Resolution) Type() ir.Type {
	if r.FanOut > 0 {
		return ir.Collection{Elem: r.Leaf()}
	}
	return r.Leaf()
}

// Path renders the dotted external form.
func (r Resolution) Path() string {
	return strings.Join(r.Segments, ".")
}

// SplitPath splits a dotted path into segments. Empty paths and empty
// segments ("a..b", ".a") are rejected.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return segments, ErrEmptyPath
		}
	}
	return segments, nil
}

// Resolve walks a dotted path starting at the named table.
func Resolve(s *ir.Schema, table, path string) (Resolution, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return Resolution{}, &PathError{Table: table, Segments: segments, Index: -1, Err: err}
	}

	root, ok := s.Table(table)
	if !ok {
		return Resolution{}, &PathError{Table: table, Segments: segments, Index: -1, Err: ErrUnknownTable}
	}
	return ResolveSegments(s, root, segments)
}

// ResolveSegments walks segments starting at root. Every segment but the
// last must name a relationship; the last must name a scalar column.
// Cyclic schemas terminate because the walk consumes one segment per step.
func ResolveSegments(s *ir.Schema, root *ir.Table, segments []string) (Resolution, error) {
	if len(segments) == 0 {
		return Resolution{}, &PathError{Table: root.Name, Index: -1, Err: ErrEmptyPath}
	}

	current := root
	fanOut := 0
	for i, seg := range segments {
		col, ok := current.Column(seg)
		if !ok {
			return Resolution{}, &PathError{Table: root.Name, Segments: segments, Index: i, Err: ErrUnknownPathSegment}
		}

		if !col.IsRelation() {
			if i != len(segments)-1 {
				// A scalar column has nothing to walk into.
				return Resolution{}, &PathError{Table: root.Name, Segments: segments, Index: i + 1, Err: ErrUnknownPathSegment}
			}
			return Resolution{Segments: segments, Table: current, Column: col, FanOut: fanOut}, nil
		}

		next, ok := s.Target(col)
		if !ok {
			return Resolution{}, &PathError{Table: root.Name, Segments: segments, Index: i, Err: ErrUnknownTable}
		}
		if col.Relation.Cardinality == ir.Many {
			fanOut++
		}
		current = next
	}

	return Resolution{}, &PathError{Table: root.Name, Segments: segments, Index: len(segments) - 1, Err: ErrIncompletePath}
}
