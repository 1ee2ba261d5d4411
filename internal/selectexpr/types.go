package selectexpr

// Node is a sealed interface for selection items.
// Only Column, Wildcard and Embed implement it.
type Node interface {
	selectNode() // Sealed - only these types implement it
	String() string
}

// Column selects one column, optionally renamed.
type Column struct {
	Name  string
	Alias string // empty when not aliased
}

func (Column) selectNode() {}

// Key is the output key: the alias when present, else the column name.
func (c Column) Key() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// Wildcard selects every scalar column of the current table.
type Wildcard struct{}

func (Wildcard) selectNode() {}

// Embed selects a related resource through a relationship.
type Embed struct {
	Relation string
	Alias    string // empty when not aliased
	Children Selection
}

func (Embed) selectNode() {}

// Key is the output key: the alias when present, else the relation name.
func (e Embed) Key() string {
	if e.Alias != "" {
		return e.Alias
	}
	return e.Relation
}

// Selection is an ordered sequence of sibling items.
type Selection []Node

// All is the selection an empty expression parses to.
func All() Selection {
	return Selection{Wildcard{}}
}
