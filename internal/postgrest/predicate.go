package postgrest

import "github.com/roach88/pgshape/internal/ir"

// Predicate is one horizontal filter of a request.
//
// This is a sealed interface; the encoder switches over the three kinds
// exhaustively.
type Predicate interface {
	predicateNode()
}

// Cond compares the value at Path with Value using Op.
//
//	Cond{Path: "team.workspaceId", Op: OpEq, Value: ir.IRString("w1")}
//
// is sent as team.workspaceId=eq.w1. Config is the text search
// configuration and is only used by the fts family.
type Cond struct {
	Path   string
	Op     Operator
	Value  ir.IRValue
	Negate bool
	Config string
}

func (Cond) predicateNode() {}

// Any is a disjunction in PostgREST's own filter syntax, sent as
// or=(<Filters>). With a ForeignTable it applies to that embedded resource.
type Any struct {
	Filters      string
	ForeignTable string
}

func (Any) predicateNode() {}

// Raw passes an operator and value through unchecked, sent as
// <Path>=<Op>.<Value>.
type Raw struct {
	Path  string
	Op    string
	Value string
}

func (Raw) predicateNode() {}
