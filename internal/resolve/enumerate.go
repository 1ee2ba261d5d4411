package resolve

import (
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
)

// PathInfo is one legal filter path.
type PathInfo struct {
	Path   string  `json:"path"`
	Type   ir.Type `json:"-"`
	FanOut int     `json:"fan_out"`
}

// Enumerate lists every legal filter path from table, following at most
// maxDepth relationships. Paths come out depth-first in column declaration
// order. The bound keeps self-referential schemas finite.
func Enumerate(s *ir.Schema, table string, maxDepth int) ([]PathInfo, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("enumerate %s: negative depth %d", table, maxDepth)
	}
	root, ok := s.Table(table)
	if !ok {
		return nil, &PathError{Table: table, Index: -1, Err: ErrUnknownTable}
	}

	var out []PathInfo
	var walk func(t *ir.Table, prefix string, depth, fanOut int)
	walk = func(t *ir.Table, prefix string, depth, fanOut int) {
		for _, c := range t.Columns() {
			path := prefix + c.Name
			if !c.IsRelation() {
				res := Resolution{Column: c, FanOut: fanOut}
				out = append(out, PathInfo{Path: path, Type: res.Type(), FanOut: fanOut})
				continue
			}
			if depth >= maxDepth {
				continue
			}
			next, ok := s.Target(c)
			if !ok {
				continue
			}
			nextFan := fanOut
			if c.Relation.Cardinality == ir.Many {
				nextFan++
			}
			walk(next, path+".", depth+1, nextFan)
		}
	}
	walk(root, "", 0, 0)
	return out, nil
}
