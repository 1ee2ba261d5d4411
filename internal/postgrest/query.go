package postgrest

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/shape"
)

// QueryBuilder starts an operation on one table.
type QueryBuilder struct {
	client   *Client
	table    string
	fallback ir.Type
}

// SelectOptions configures Select.
type SelectOptions struct {
	Head  bool // HEAD request; no rows come back
	Count Count
}

// InsertOptions configures Insert. Upsert and OnConflict are the older
// spelling of Upsert and are forwarded to it.
type InsertOptions struct {
	Upsert     bool
	OnConflict string
	Returning  Returning
	Count      Count
}

// UpsertOptions configures Upsert.
type UpsertOptions struct {
	OnConflict       string // columns of the unique constraint, comma separated
	Returning        Returning
	Count            Count
	IgnoreDuplicates bool
}

// MutateOptions configures Update and Delete.
type MutateOptions struct {
	Returning Returning
	Count     Count
}

// Select fetches rows shaped by columns. An empty columns selects every
// scalar column.
func (q *QueryBuilder) Select(columns string, opts SelectOptions) *FilterBuilder {
	proj := q.client.shapes.Resolve(q.table, columns, q.fallback)
	b := q.builder(proj)

	if proj.Select != "" {
		b.query.Set("select", proj.Select)
	} else {
		b.query.Set("select", stripWhitespace(columns))
	}
	b.method = http.MethodGet
	if opts.Head {
		b.method = http.MethodHead
	}
	b.returnsRows = !opts.Head
	b.setCount(opts.Count)
	return b
}

// Insert creates one row (an object) or many (an array of objects).
func (q *QueryBuilder) Insert(rows ir.IRValue, opts InsertOptions) *FilterBuilder {
	if opts.Upsert {
		return q.Upsert(rows, UpsertOptions{
			OnConflict: opts.OnConflict,
			Returning:  opts.Returning,
			Count:      opts.Count,
		})
	}

	b := q.mutation(http.MethodPost, opts.Returning, opts.Count)
	b.checkRows(rows, true)
	b.setBody(rows)
	return b
}

// Upsert inserts rows, merging (or ignoring) those that collide on
// OnConflict or the primary key.
func (q *QueryBuilder) Upsert(rows ir.IRValue, opts UpsertOptions) *FilterBuilder {
	b := q.mutation(http.MethodPost, opts.Returning, opts.Count)
	resolution := "resolution=merge-duplicates"
	if opts.IgnoreDuplicates {
		resolution = "resolution=ignore-duplicates"
	}
	b.prefer = append(b.prefer, resolution)
	if opts.OnConflict != "" {
		b.query.Set("on_conflict", opts.OnConflict)
	}
	b.checkRows(rows, true)
	b.setBody(rows)
	return b
}

// Update sets values on every row the filters match.
func (q *QueryBuilder) Update(values ir.IRObject, opts MutateOptions) *FilterBuilder {
	b := q.mutation(http.MethodPatch, opts.Returning, opts.Count)
	b.checkRows(values, false)
	b.setBody(values)
	return b
}

// Delete removes every row the filters match.
func (q *QueryBuilder) Delete(opts MutateOptions) *FilterBuilder {
	return q.mutation(http.MethodDelete, opts.Returning, opts.Count)
}

// mutation builds a write whose rows, when returned, have the wildcard
// shape of the table.
func (q *QueryBuilder) mutation(method string, returning Returning, count Count) *FilterBuilder {
	proj := q.client.shapes.Resolve(q.table, "*", q.fallback)
	b := q.builder(proj)
	b.method = method

	if err := returning.validate(); err != nil {
		b.fail(err)
	}
	returning = returning.orDefault()
	b.prefer = append(b.prefer, "return="+string(returning))
	b.returnsRows = returning == ReturnRepresentation
	b.setCount(count)
	return b
}

func (q *QueryBuilder) builder(proj shape.Projection) *FilterBuilder {
	b := q.client.newBuilder("/"+q.table, q.table, proj.Type)
	b.projection = proj
	return b
}

// checkRows verifies that every key of every row is a scalar column of the
// table and that its value fits. Rows of an unknown table are not checked.
func (b *FilterBuilder) checkRows(rows ir.IRValue, allowMany bool) {
	table, ok := b.client.schema.Table(b.table)

	check := func(i int, row ir.IRValue) {
		obj, isObject := row.(ir.IRObject)
		if !isObject {
			b.fail(fmt.Errorf("row %d: expected an object, got %s", i, ir.ValueKind(row)))
			return
		}
		if !ok {
			return
		}
		for _, key := range obj.SortedKeys() {
			col, found := table.Column(key)
			if !found || col.IsRelation() {
				b.fail(&ValueTypeError{Column: key, Value: obj[key], Expected: ir.Unknown{},
					Err: &resolve.PathError{Table: b.table, Segments: []string{key}, Index: 0, Err: resolve.ErrUnknownPathSegment}})
				continue
			}
			expected := ir.ColumnType(col)
			if !ir.Assignable(obj[key], expected) {
				b.fail(&ValueTypeError{Column: key, Value: obj[key], Expected: expected, Err: resolve.ErrNotAssignable})
			}
		}
	}

	if arr, isArray := rows.(ir.IRArray); isArray && allowMany {
		for i, row := range arr {
			check(i, row)
		}
		return
	}
	check(0, rows)
}

// stripWhitespace removes whitespace outside double quotes.
func stripWhitespace(columns string) string {
	var sb strings.Builder
	quoted := false
	for _, r := range columns {
		if r == '"' {
			quoted = !quoted
		}
		if !quoted && unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
