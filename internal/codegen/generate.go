package codegen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/store"
)

const header = "Code generated by pgshape. DO NOT EDIT."

// Generator renders catalogued shapes as Go source.
type Generator struct {
	pkg     string
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// Metrics counts what the last run produced.
type Metrics struct {
	FilesGenerated int
	TypesGenerated int
	TotalBytes     int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers bounds how many files render at once. Defaults to
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator for Go package pkg.
func New(pkg string, opts ...Option) *Generator {
	g := &Generator{
		pkg:     pkg,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Metrics returns the counters of the last Generate or WriteAll.
func (g *Generator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.metrics
}

// TypeSpec is one shape and the names its declarations get.
type TypeSpec struct {
	Name   string
	Record store.ShapeRecord

	// SelectConst names the canonical select constant, empty when the
	// shape has no canonical select.
	SelectConst string

	// Nested names the struct of every object nested in the shape, keyed
	// by the parent struct name and the field key.
	Nested map[string]string
}

// FileSpec is one output file: every shape of one table.
type FileSpec struct {
	Name  string
	Table string
	Types []TypeSpec
}

// Output is a rendered file.
type Output struct {
	Name   string
	Source []byte
}

// Plan groups records by table and assigns every package-level name: row
// types first, in catalog order, then select constants and nested structs.
// Records keep their catalog order within a file; files are sorted by name.
func (g *Generator) Plan(records []store.ShapeRecord) []FileSpec {
	names := newNamer()
	byTable := make(map[string]*FileSpec)
	var order []string

	for _, rec := range records {
		spec, ok := byTable[rec.Table]
		if !ok {
			spec = &FileSpec{Name: fileName(rec.Table), Table: rec.Table}
			byTable[rec.Table] = spec
			order = append(order, rec.Table)
		}

		base := rowTypeName(rec.Table)
		if rec.Name != "" {
			base = GoName(rec.Name)
		}
		spec.Types = append(spec.Types, TypeSpec{Name: names.claim(base), Record: rec})
	}

	for _, table := range order {
		spec := byTable[table]
		for i := range spec.Types {
			ts := &spec.Types[i]
			if ts.Record.Select != "" {
				ts.SelectConst = names.claim(ts.Name + "Select")
			}
			ts.Nested = make(map[string]string)
			if obj, ok := ts.Record.Type.(ir.Object); ok {
				claimNested(names, ts.Name, obj.Shape, ts.Nested)
			}
		}
	}

	files := make([]FileSpec, 0, len(order))
	for _, table := range order {
		files = append(files, *byTable[table])
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// claimNested names the objects nested in shape, depth first in field
// order. A collection field names its element after the singular key.
func claimNested(names *namer, parent string, shape *ir.Shape, out map[string]string) {
	for _, fld := range shape.Fields() {
		obj, ok := elemObject(fld.Type)
		if !ok {
			continue
		}
		name := names.claim(nestedBase(parent, fld.Key, fld.Type))
		out[nestedKey(parent, fld.Key)] = name
		claimNested(names, name, obj.Shape, out)
	}
}

func elemObject(t ir.Type) (ir.Object, bool) {
	for {
		c, ok := t.(ir.Collection)
		if !ok {
			break
		}
		t = c.Elem
	}
	obj, ok := t.(ir.Object)
	return obj, ok
}

// nestedBase is the unclaimed name of the object under key: the parent name
// and the key, singular once per collection level.
func nestedBase(parent, key string, t ir.Type) string {
	for {
		c, ok := t.(ir.Collection)
		if !ok {
			break
		}
		key, t = inflect.Singularize(key), c.Elem
	}
	return parent + GoName(key)
}

func nestedKey(parent, key string) string {
	return parent + "." + key
}

// File builds the jennifer file for one spec.
func (g *Generator) File(spec FileSpec) *jen.File {
	f := jen.NewFile(g.pkg)
	f.HeaderComment(header)

	for _, ts := range spec.Types {
		rec := ts.Record
		sel := rec.Select
		if sel == "" {
			sel = rec.Columns
		}

		if ts.SelectConst != "" {
			f.Commentf("%s is the canonical select for %s.", ts.SelectConst, ts.Name)
			f.Const().Id(ts.SelectConst).Op("=").Lit(rec.Select)
			f.Line()
		}

		f.Commentf("%s is the row shape of %s?select=%s.", ts.Name, rec.Table, sel)
		if rec.Degraded && rec.Error != "" {
			f.Commentf("Degraded: %s", rec.Error)
		}

		obj, ok := rec.Type.(ir.Object)
		if !ok {
			f.Type().Id(ts.Name).Qual("encoding/json", "RawMessage")
			f.Line()
			continue
		}
		g.genStruct(f, ts.Name, obj.Shape, ts.Nested)
	}
	return f
}

// genStruct emits a struct for shape followed by its nested structs,
// depth first. Field identifiers are unique per struct; the JSON tag keeps
// the output key.
func (g *Generator) genStruct(f *jen.File, name string, shape *ir.Shape, nestedNames map[string]string) {
	type pending struct {
		name  string
		shape *ir.Shape
	}
	var nested []pending

	var goType func(nestedName string, t ir.Type) *jen.Statement
	goType = func(nestedName string, t ir.Type) *jen.Statement {
		switch typ := t.(type) {
		case ir.Scalar:
			base := scalarType(typ.Name)
			if typ.Nullable && typ.Name != ir.TypeJSON {
				return jen.Op("*").Add(base)
			}
			return base
		case ir.Collection:
			return jen.Index().Add(goType(nestedName, typ.Elem))
		case ir.Object:
			nested = append(nested, pending{name: nestedName, shape: typ.Shape})
			return jen.Id(nestedName)
		default:
			return jen.Qual("encoding/json", "RawMessage")
		}
	}

	fieldNames := newNamer()
	fields := make([]jen.Code, 0, shape.Len())
	for _, fld := range shape.Fields() {
		nestedName, ok := nestedNames[nestedKey(name, fld.Key)]
		if !ok {
			nestedName = nestedBase(name, fld.Key, fld.Type)
		}
		fields = append(fields,
			jen.Id(fieldNames.claim(GoName(fld.Key))).Add(goType(nestedName, fld.Type)).Tag(map[string]string{"json": fld.Key}))
	}
	f.Type().Id(name).Struct(fields...)
	f.Line()

	g.count(0, 1, 0)
	for _, n := range nested {
		f.Commentf("%s is a nested row of %s.", n.name, name)
		g.genStruct(f, n.name, n.shape, nestedNames)
	}
}

func scalarType(name ir.ScalarType) *jen.Statement {
	switch name {
	case ir.TypeString, ir.TypeUUID:
		return jen.String()
	case ir.TypeInteger:
		return jen.Int64()
	case ir.TypeNumber:
		return jen.Float64()
	case ir.TypeBoolean:
		return jen.Bool()
	case ir.TypeTimestamp:
		return jen.Qual("time", "Time")
	default:
		return jen.Qual("encoding/json", "RawMessage")
	}
}

// Generate renders every file in memory, in parallel.
func (g *Generator) Generate(ctx context.Context, records []store.ShapeRecord) ([]Output, error) {
	g.reset()
	specs := g.Plan(records)
	outputs := make([]Output, len(specs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, spec := range specs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				src, err := g.render(spec)
				if err != nil {
					return err
				}
				outputs[i] = Output{Name: spec.Name, Source: src}
				return nil
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// WriteAll renders every file into outDir, in parallel, and returns the
// written paths sorted.
func (g *Generator) WriteAll(ctx context.Context, outDir string, records []store.ShapeRecord) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	g.reset()
	specs := g.Plan(records)
	paths := make([]string, len(specs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, spec := range specs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				path := filepath.Join(outDir, spec.Name)
				src, err := g.render(spec)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, src, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", spec.Name, err)
				}
				g.logger.Debug("generated file", "path", path, "types", len(spec.Types))
				paths[i] = path
				return nil
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (g *Generator) render(spec FileSpec) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.File(spec).Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.Name, err)
	}
	g.count(1, 0, int64(buf.Len()))
	return buf.Bytes(), nil
}

func (g *Generator) count(files, types int, size int64) {
	g.mu.Lock()
	g.metrics.FilesGenerated += files
	g.metrics.TypesGenerated += types
	g.metrics.TotalBytes += size
	g.mu.Unlock()
}

func (g *Generator) reset() {
	g.mu.Lock()
	g.metrics = Metrics{}
	g.mu.Unlock()
}
