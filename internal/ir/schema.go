package ir

import (
	"fmt"
	"sort"
)

// ScalarType is the type tag of a scalar column.
type ScalarType string

// Scalar type tags.
const (
	TypeString    ScalarType = "string"
	TypeInteger   ScalarType = "integer"
	TypeNumber    ScalarType = "number"
	TypeBoolean   ScalarType = "boolean"
	TypeJSON      ScalarType = "json"
	TypeTimestamp ScalarType = "timestamp"
	TypeUUID      ScalarType = "uuid"
)

// ValidScalarTypes defines the allowed scalar type tags.
var ValidScalarTypes = map[ScalarType]bool{
	TypeString:    true,
	TypeInteger:   true,
	TypeNumber:    true,
	TypeBoolean:   true,
	TypeJSON:      true,
	TypeTimestamp: true,
	TypeUUID:      true,
}

// Cardinality tags a relationship as to-one or to-many.
type Cardinality string

const (
	// One traverses to a single related row.
	One Cardinality = "one"
	// Many traverses to a set of related rows (fan-out).
	Many Cardinality = "many"
)

// Relationship points a column at another table.
type Relationship struct {
	Target      string      `json:"target"`
	Cardinality Cardinality `json:"cardinality"`
}

// Column is a named column spec: either a scalar or a relationship.
type Column struct {
	Name     string        `json:"name"`
	Type     ScalarType    `json:"type,omitempty"`     // empty for relationships
	Nullable bool          `json:"nullable,omitempty"` // scalars only
	Relation *Relationship `json:"relation,omitempty"`
}

// IsRelation reports whether the column is a relationship.
func (c Column) IsRelation() bool {
	return c.Relation != nil
}

// ScalarColumn creates a non-nullable scalar column.
func ScalarColumn(name string, typ ScalarType) Column {
	return Column{Name: name, Type: typ}
}

// NullableColumn creates a nullable scalar column.
func NullableColumn(name string, typ ScalarType) Column {
	return Column{Name: name, Type: typ, Nullable: true}
}

// RelationColumn creates a relationship column.
func RelationColumn(name, target string, card Cardinality) Column {
	return Column{Name: name, Relation: &Relationship{Target: target, Cardinality: card}}
}

// Table is an ordered set of columns.
// Declaration order is preserved and is the order wildcard projections use.
type Table struct {
	Name    string
	columns []Column
	index   map[string]int
}

// NewTable creates a table. A column name declared twice keeps its first
// position and takes the later definition.
func NewTable(name string, cols ...Column) *Table {
	t := &Table{Name: name, index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if i, ok := t.index[c.Name]; ok {
			t.columns[i] = c
			continue
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Columns returns all columns in declaration order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ScalarColumns returns the scalar columns in declaration order.
func (t *Table) ScalarColumns() []Column {
	var out []Column
	for _, c := range t.columns {
		if !c.IsRelation() {
			out = append(out, c)
		}
	}
	return out
}

// Relations returns the relationship columns in declaration order.
func (t *Table) Relations() []Column {
	var out []Column
	for _, c := range t.columns {
		if c.IsRelation() {
			out = append(out, c)
		}
	}
	return out
}

// Schema maps table names to table definitions. Immutable after NewSchema.
type Schema struct {
	tables map[string]*Table
	names  []string
}

// SchemaError reports a structural problem found while building a Schema.
type SchemaError struct {
	Table   string
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Table, e.Message)
}

// NewSchema builds an immutable schema.
// Table names must be unique and every relationship target must exist.
func NewSchema(tables ...*Table) (*Schema, error) {
	s := &Schema{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			return nil, &SchemaError{Message: "nil table"}
		}
		if _, dup := s.tables[t.Name]; dup {
			return nil, &SchemaError{Table: t.Name, Message: "duplicate table"}
		}
		s.tables[t.Name] = t
		s.names = append(s.names, t.Name)
	}
	sort.Strings(s.names)

	for _, name := range s.names {
		for _, c := range s.tables[name].Relations() {
			if _, ok := s.tables[c.Relation.Target]; !ok {
				return nil, &SchemaError{
					Table:   name,
					Column:  c.Name,
					Message: fmt.Sprintf("relationship target %q is not a declared table", c.Relation.Target),
				}
			}
			if c.Relation.Cardinality != One && c.Relation.Cardinality != Many {
				return nil, &SchemaError{
					Table:   name,
					Column:  c.Name,
					Message: fmt.Sprintf("invalid cardinality %q", c.Relation.Cardinality),
				}
			}
		}
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error. Intended for fixtures.
func MustSchema(tables ...*Table) *Schema {
	s, err := NewSchema(tables...)
	if err != nil {
		panic(err)
	}
	return s
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Column looks up a column of a table.
func (s *Schema) Column(table, name string) (Column, bool) {
	t, ok := s.tables[table]
	if !ok {
		return Column{}, false
	}
	return t.Column(name)
}

// Target returns the table a relationship column points at.
func (s *Schema) Target(c Column) (*Table, bool) {
	if !c.IsRelation() {
		return nil, false
	}
	return s.Table(c.Relation.Target)
}

// Tables returns all tables sorted by name.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.tables[n])
	}
	return out
}

// TableNames returns all table names, sorted.
func (s *Schema) TableNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
