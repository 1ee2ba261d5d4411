package shape

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/selectexpr"
)

// Diagnostic records one field that degraded to unknown.
type Diagnostic struct {
	Key string // dotted output-key path, e.g. "team.user.nickname"
	Err error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Key, d.Err)
}

// Projection is the outcome of resolving one (table, select) pair.
type Projection struct {
	ID          string  // ir.ShapeID of schema, table and canonical select
	Seq         int64   // logical clock stamp; 0 until cached
	Table       string  // root table as requested
	Columns     string  // select expression as given
	Select      string  // canonical select; empty when parsing failed
	Type        ir.Type // projected row type
	Degraded    bool    // true when any part of Type is a fallback
	Diagnostics []Diagnostic
	Err         error // *selectexpr.ParseError or resolve.ErrUnknownTable
}

// Shape returns the projected row shape, or nil when the whole row
// degraded.
func (p Projection) Shape() *ir.Shape {
	if obj, ok := p.Type.(ir.Object); ok {
		return obj.Shape
	}
	return nil
}

// Projector computes shapes against one schema. It holds no mutable state
// and is safe for concurrent use.
type Projector struct {
	schema     *ir.Schema
	schemaHash string
	logger     *slog.Logger
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

// NewProjector creates a projector for schema.
func NewProjector(schema *ir.Schema, opts ...Option) *Projector {
	p := &Projector{
		schema:     schema,
		schemaHash: ir.MustSchemaHash(schema),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schema returns the schema the projector was built for.
func (p *Projector) Schema() *ir.Schema {
	return p.schema
}

// SchemaHash returns the content hash of the schema.
func (p *Projector) SchemaHash() string {
	return p.schemaHash
}

// Project computes the shape of sel rooted at table. Only an unknown root
// table is an error (wrapping resolve.ErrUnknownTable); every other
// failure degrades the affected field to unknown.
func (p *Projector) Project(table string, sel selectexpr.Selection) (*ir.Shape, error) {
	shape, _, err := p.project(table, sel)
	return shape, err
}

func (p *Projector) project(table string, sel selectexpr.Selection) (*ir.Shape, []Diagnostic, error) {
	root, ok := p.schema.Table(table)
	if !ok {
		return nil, nil, &resolve.PathError{Table: table, Index: -1, Err: resolve.ErrUnknownTable}
	}

	var diags []Diagnostic
	shape := p.projectTable(root, sel, "", &diags)
	return shape, diags, nil
}

func (p *Projector) projectTable(t *ir.Table, sel selectexpr.Selection, prefix string, diags *[]Diagnostic) *ir.Shape {
	shape := ir.NewShape()
	for _, node := range sel {
		switch n := node.(type) {
		case selectexpr.Wildcard:
			for _, c := range t.ScalarColumns() {
				shape.Set(c.Name, ir.ColumnType(c))
			}

		case selectexpr.Column:
			res, err := resolve.ResolveSegments(p.schema, t, []string{n.Name})
			if err != nil {
				*diags = append(*diags, Diagnostic{Key: prefix + n.Key(), Err: err})
				shape.Set(n.Key(), ir.Unknown{})
				continue
			}
			shape.Set(n.Key(), res.Type())

		case selectexpr.Embed:
			shape.Set(n.Key(), p.projectEmbed(t, n, prefix, diags))
		}
	}
	return shape
}

func (p *Projector) projectEmbed(t *ir.Table, e selectexpr.Embed, prefix string, diags *[]Diagnostic) ir.Type {
	key := prefix + e.Key()

	col, ok := t.Column(e.Relation)
	if !ok || !col.IsRelation() {
		err := fmt.Errorf("%s has no relationship %q", t.Name, e.Relation)
		*diags = append(*diags, Diagnostic{Key: key, Err: err})
		return ir.Unknown{}
	}
	target, ok := p.schema.Target(col)
	if !ok {
		*diags = append(*diags, Diagnostic{Key: key, Err: fmt.Errorf("relationship %q: %w", e.Relation, resolve.ErrUnknownTable)})
		return ir.Unknown{}
	}

	nested := ir.Object{Shape: p.projectTable(target, e.Children, key+".", diags)}
	if col.Relation.Cardinality == ir.Many {
		return ir.Collection{Elem: nested}
	}
	return nested
}

// Resolve parses columns and projects it from table. It never fails:
//
//   - a malformed select degrades the row to unknown;
//   - an unknown table degrades the row to fallback (unknown when nil);
//   - unresolvable fields degrade individually.
//
// Projection.Err and Diagnostics say what degraded and why.
func (p *Projector) Resolve(table, columns string, fallback ir.Type) Projection {
	proj := p.resolve(table, columns)
	return proj.withFallback(fallback)
}

// resolve computes a projection with no fallback applied, so the result
// can be cached and shared by callers with different fallbacks.
func (p *Projector) resolve(table, columns string) Projection {
	proj := Projection{Table: table, Columns: columns, Type: ir.Unknown{}}

	sel, err := selectexpr.Parse(columns)
	if err != nil {
		proj.ID = ir.ShapeID(p.schemaHash, table, columns)
		proj.Degraded = true
		proj.Err = err
		p.logger.Debug("select did not parse, row degraded to unknown",
			"table", table, "columns", columns, "error", err)
		return proj
	}

	proj.Select = sel.String()
	proj.ID = ir.ShapeID(p.schemaHash, table, proj.Select)

	shape, diags, err := p.project(table, sel)
	if err != nil {
		proj.Degraded = true
		proj.Err = err
		p.logger.Debug("unknown table, row degraded to fallback", "table", table)
		return proj
	}

	proj.Type = ir.Object{Shape: shape}
	proj.Diagnostics = diags
	proj.Degraded = len(diags) > 0
	for _, d := range diags {
		p.logger.Debug("field degraded to unknown", "table", table, "key", d.Key, "error", d.Err)
	}
	return proj
}

func (p Projection) withFallback(fallback ir.Type) Projection {
	if fallback != nil && errors.Is(p.Err, resolve.ErrUnknownTable) {
		p.Type = fallback
	}
	return p
}
