package selectexpr

import "strings"

func (c Column) String() string {
	if c.Alias != "" && c.Alias != c.Name {
		return c.Alias + ":" + c.Name
	}
	return c.Name
}

func (Wildcard) String() string { return "*" }

func (e Embed) String() string {
	var b strings.Builder
	if e.Alias != "" && e.Alias != e.Relation {
		b.WriteString(e.Alias)
		b.WriteByte(':')
	}
	b.WriteString(e.Relation)
	b.WriteByte('(')
	b.WriteString(e.Children.String())
	b.WriteByte(')')
	return b.String()
}

// String renders the canonical select expression: no whitespace, aliases
// equal to their name dropped. This is the exact text sent on the wire.
func (s Selection) String() string {
	var b strings.Builder
	for i, n := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n.String())
	}
	return b.String()
}
