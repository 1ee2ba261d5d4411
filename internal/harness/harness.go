package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pgshape/internal/compiler"
	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/postgrest"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/shape"
	"github.com/roach88/pgshape/internal/store"
	"github.com/roach88/pgshape/internal/testutil"
)

// Harness runs the cases of one scenario against one compiled schema.
type Harness struct {
	schema *ir.Schema
	shapes *shape.Cache
	client *postgrest.Client
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario compiles its own schema and records shapes into a fresh
// in-memory catalog. The catalog clock and request IDs are deterministic,
// so identical scenarios produce identical results.
//
// A non-nil error means the scenario could not run at all; case
// mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	schema, err := compiler.LoadDir(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projector := shape.NewProjector(schema, shape.WithLogger(logger))
	cache := shape.NewCache(projector,
		shape.WithRecorder(st.NewRecorder(projector.SchemaHash())),
		shape.WithClock(testutil.NewDeterministicClock()),
	)

	h := &Harness{
		schema: schema,
		shapes: cache,
		client: postgrest.NewClient("",
			schema,
			postgrest.WithLogger(logger),
			postgrest.WithShapeCache(cache),
			postgrest.WithIDGenerator(testutil.NewSequentialIDs()),
		),
		logger: logger,
	}

	result := NewResult()
	for i, c := range scenario.Shapes {
		h.runShape(i, c, result)
	}
	for i, c := range scenario.Filters {
		h.runFilter(i, c, result)
	}
	for i, c := range scenario.Requests {
		h.runRequest(i, c, result)
	}

	records, err := st.ListShapes(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	result.Catalogued = len(records)
	return result, nil
}

func (h *Harness) runShape(i int, c ShapeCase, result *Result) {
	proj := h.shapes.Resolve(c.From, c.Select, nil)

	out := Outcome{
		Kind:    "shape",
		Subject: c.From + "?select=" + c.Select,
		Type:    proj.Type.String(),
		Select:  proj.Select,
		Error:   ErrorKind(proj.Err),
	}
	for _, d := range proj.Diagnostics {
		out.Degraded = append(out.Degraded, d.Key)
	}
	result.AddOutcome(out)

	if msg := checkShape(c.Expect, out); msg != "" {
		result.AddError(fmt.Sprintf("shapes[%d] %s: %s", i, out.Subject, msg))
	}
}

func (h *Harness) runFilter(i int, c FilterCase, result *Result) {
	typ, err := resolve.FilterType(h.schema, c.From, c.Path)
	if err != nil {
		h.logger.Debug("filter path degraded", "table", c.From, "path", c.Path, "error", err)
	}

	out := Outcome{
		Kind:    "filter",
		Subject: c.From + "." + c.Path,
		Type:    typ.String(),
		Error:   ErrorKind(err),
	}
	result.AddOutcome(out)

	if msg := checkFilter(c.Expect, out); msg != "" {
		result.AddError(fmt.Sprintf("filters[%d] %s: %s", i, out.Subject, msg))
	}
}

func (h *Harness) runRequest(i int, c RequestCase, result *Result) {
	b := h.client.From(c.From).Select(c.Select, postgrest.SelectOptions{})
	out := Outcome{
		Kind:    "request",
		Subject: c.From + "?select=" + c.Select,
	}

	var req *postgrest.Request
	err := applyWhere(b, c.Where)
	if err == nil {
		req, err = b.Request()
	}
	if err != nil {
		out.Error = ErrorKind(err)
	} else {
		out.Target = req.String()
		out.Type = req.Returns.String()
	}
	result.AddOutcome(out)

	if msg := checkRequest(c.Expect, out); msg != "" {
		result.AddError(fmt.Sprintf("requests[%d] %s: %s", i, out.Subject, msg))
	}
}

// applyWhere adds the case's filters. It only fails for filters that
// cannot be expressed at all; ill-typed values surface from Request.
func applyWhere(b *postgrest.FilterBuilder, where []RequestFilter) error {
	for j, w := range where {
		op, err := postgrest.ParseOperator(w.Op)
		if err != nil {
			return fmt.Errorf("where[%d]: %w", j, err)
		}
		v, err := ir.FromAny(w.Value)
		if err != nil {
			return fmt.Errorf("where[%d]: %w", j, err)
		}
		if w.Not {
			b.Not(w.Path, op, v)
		} else {
			b.Where(w.Path, op, v)
		}
	}
	return nil
}
