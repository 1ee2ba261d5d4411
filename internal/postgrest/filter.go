package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/selectexpr"
	"github.com/roach88/pgshape/internal/shape"
)

// FilterBuilder accumulates filters and modifiers for one request. Type
// errors are collected as they happen and reported by Err, Request and
// Execute.
type FilterBuilder struct {
	client      *Client
	method      string
	path        string
	table       string // empty for RPC
	rpc         bool
	projection  shape.Projection
	row         ir.Type
	filters     []Predicate
	query       url.Values
	header      http.Header
	prefer      []string
	body        ir.IRValue
	returnsRows bool
	single      bool
	errs        []error
}

// Projection is the resolved select behind this request. It is the zero
// value for RPC calls.
func (b *FilterBuilder) Projection() shape.Projection {
	return b.projection
}

// Row is the type of one returned row.
func (b *FilterBuilder) Row() ir.Type {
	if b.rpc {
		if c, ok := b.row.(ir.Collection); ok {
			return c.Elem
		}
	}
	return b.row
}

// Returns is the type of the decoded response body, or nil when no rows
// come back.
func (b *FilterBuilder) Returns() ir.Type {
	if !b.returnsRows {
		return nil
	}
	if b.rpc {
		if b.single {
			return b.Row()
		}
		return b.row
	}
	if b.single {
		return b.row
	}
	return ir.Collection{Elem: b.row}
}

// Filters returns the predicates added so far.
func (b *FilterBuilder) Filters() []Predicate {
	return append([]Predicate(nil), b.filters...)
}

// Err joins every error recorded while building.
func (b *FilterBuilder) Err() error {
	return errors.Join(b.errs...)
}

// PathType is the type a filter on path is checked against: the projected
// row first (so output aliases resolve), then the schema. A path that names
// an aliased embed by its relation is Unknown.
func (b *FilterBuilder) PathType(path string) ir.Type {
	if obj, ok := b.Row().(ir.Object); ok {
		t, err := resolve.TypeOf(obj, path)
		if err == nil {
			if _, unknown := t.(ir.Unknown); !unknown {
				return t
			}
		}
	}
	if b.table == "" {
		return ir.Unknown{}
	}
	if err := b.checkEmbedAliases(path); err != nil {
		b.client.logger.Debug("filter path bypasses an embed alias",
			"table", b.table, "path", path, "error", err)
		return ir.Unknown{}
	}

	t, err := resolve.FilterType(b.client.schema, b.table, path)
	if err != nil {
		b.client.logger.Debug("filter path degraded to unknown",
			"table", b.table, "path", path, "error", err)
	}
	return t
}

// checkEmbedAliases walks path through the parsed select and fails when a
// segment names an embed by its relation while the select gave it another
// key. Segments past the selected embeds are not checked.
func (b *FilterBuilder) checkEmbedAliases(path string) error {
	if b.projection.Select == "" {
		return nil
	}
	sel, err := selectexpr.Parse(b.projection.Select)
	if err != nil {
		return nil
	}

	segments := strings.Split(path, ".")
	for i, seg := range segments[:len(segments)-1] {
		e, ok := findEmbed(sel, seg)
		if !ok {
			return nil
		}
		if e.Key() != seg {
			return fmt.Errorf("%w: %s is selected as %s",
				ErrAliasedEmbed, strings.Join(segments[:i+1], "."), e.Alias)
		}
		sel = e.Children
	}
	return nil
}

// findEmbed finds the embed whose output key is seg, else one whose
// relation is seg.
func findEmbed(sel selectexpr.Selection, seg string) (selectexpr.Embed, bool) {
	var byRelation *selectexpr.Embed
	for _, node := range sel {
		e, ok := node.(selectexpr.Embed)
		if !ok {
			continue
		}
		if e.Key() == seg {
			return e, true
		}
		if byRelation == nil && e.Relation == seg {
			byRelation = &e
		}
	}
	if byRelation != nil {
		return *byRelation, true
	}
	return selectexpr.Embed{}, false
}

// Eq matches rows where path equals v.
func (b *FilterBuilder) Eq(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpEq, v, false, "")
}

// Neq matches rows where path does not equal v.
func (b *FilterBuilder) Neq(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpNeq, v, false, "")
}

func (b *FilterBuilder) Gt(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpGt, v, false, "")
}

func (b *FilterBuilder) Gte(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpGte, v, false, "")
}

func (b *FilterBuilder) Lt(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpLt, v, false, "")
}

func (b *FilterBuilder) Lte(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpLte, v, false, "")
}

// Like matches a case-sensitive pattern; % is the wildcard.
func (b *FilterBuilder) Like(path, pattern string) *FilterBuilder {
	return b.cond(path, OpLike, ir.IRString(pattern), false, "")
}

// ILike matches a case-insensitive pattern.
func (b *FilterBuilder) ILike(path, pattern string) *FilterBuilder {
	return b.cond(path, OpILike, ir.IRString(pattern), false, "")
}

// Is tests identity against null or a boolean.
func (b *FilterBuilder) Is(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpIs, v, false, "")
}

// In matches rows where path is one of values.
func (b *FilterBuilder) In(path string, values ...ir.IRValue) *FilterBuilder {
	return b.cond(path, OpIn, ir.IRArray(values), false, "")
}

// Contains matches json, array or range values containing v.
func (b *FilterBuilder) Contains(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpContains, v, false, "")
}

// ContainedBy matches json, array or range values contained in v.
func (b *FilterBuilder) ContainedBy(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpContainedBy, v, false, "")
}

// RangeLt matches ranges strictly left of r.
func (b *FilterBuilder) RangeLt(path, r string) *FilterBuilder {
	return b.cond(path, OpRangeLt, ir.IRString(r), false, "")
}

// RangeGt matches ranges strictly right of r.
func (b *FilterBuilder) RangeGt(path, r string) *FilterBuilder {
	return b.cond(path, OpRangeGt, ir.IRString(r), false, "")
}

// RangeGte matches ranges that do not extend left of r.
func (b *FilterBuilder) RangeGte(path, r string) *FilterBuilder {
	return b.cond(path, OpRangeGte, ir.IRString(r), false, "")
}

// RangeLte matches ranges that do not extend right of r.
func (b *FilterBuilder) RangeLte(path, r string) *FilterBuilder {
	return b.cond(path, OpRangeLte, ir.IRString(r), false, "")
}

// RangeAdjacent matches ranges adjacent to r.
func (b *FilterBuilder) RangeAdjacent(path, r string) *FilterBuilder {
	return b.cond(path, OpRangeAdjacent, ir.IRString(r), false, "")
}

// Overlaps matches arrays or ranges sharing an element with v.
func (b *FilterBuilder) Overlaps(path string, v ir.IRValue) *FilterBuilder {
	return b.cond(path, OpOverlaps, v, false, "")
}

// TextSearchOptions configures TextSearch.
type TextSearchOptions struct {
	Config string // text search configuration, e.g. "english"
	Type   TextSearchType
}

// TextSearch matches a tsvector column against query.
func (b *FilterBuilder) TextSearch(path, query string, opts TextSearchOptions) *FilterBuilder {
	op, err := opts.Type.operator()
	if err != nil {
		return b.fail(err)
	}
	return b.cond(path, op, ir.IRString(query), false, opts.Config)
}

// Not negates a single filter.
func (b *FilterBuilder) Not(path string, op Operator, v ir.IRValue) *FilterBuilder {
	return b.cond(path, op, v, true, "")
}

// Where adds a typed filter with the operator chosen at run time. The
// named methods above are shorthands for it.
func (b *FilterBuilder) Where(path string, op Operator, v ir.IRValue) *FilterBuilder {
	return b.cond(path, op, v, false, "")
}

// OrOptions configures Or.
type OrOptions struct {
	ForeignTable string // embedded resource the disjunction applies to
}

// Or adds a disjunction written in PostgREST syntax, e.g.
// "id.eq.1,name.eq.x". Its contents are not type checked.
func (b *FilterBuilder) Or(filters string, opts OrOptions) *FilterBuilder {
	if strings.TrimSpace(filters) == "" {
		return b.fail(fmt.Errorf("or: empty filter list"))
	}
	b.filters = append(b.filters, Any{Filters: filters, ForeignTable: opts.ForeignTable})
	return b
}

// Filter adds a filter with an operator given as text (for example
// "not.in") and an already encoded value. Neither is type checked, but the
// operator must be known.
func (b *FilterBuilder) Filter(path, op, value string) *FilterBuilder {
	if _, err := resolve.SplitPath(path); err != nil {
		return b.fail(&FilterTypeError{Path: path, Operator: Operator(op), Value: ir.IRString(value), Expected: ir.Unknown{}, Err: err})
	}
	if _, err := ParseOperator(strings.TrimPrefix(op, "not.")); err != nil {
		return b.fail(err)
	}
	b.filters = append(b.filters, Raw{Path: path, Op: op, Value: value})
	return b
}

// Match adds an equality filter for every key of query.
func (b *FilterBuilder) Match(query ir.IRObject) *FilterBuilder {
	for _, key := range query.SortedKeys() {
		b.Eq(key, query[key])
	}
	return b
}

// OrderOptions configures Order.
type OrderOptions struct {
	Descending   bool
	NullsFirst   bool
	ForeignTable string
}

// Order sorts by path. Repeated calls add tie-breakers.
func (b *FilterBuilder) Order(path string, opts OrderOptions) *FilterBuilder {
	direction := "asc"
	if opts.Descending {
		direction = "desc"
	}
	nulls := "nullslast"
	if opts.NullsFirst {
		nulls = "nullsfirst"
	}
	key := modifierKey(opts.ForeignTable, "order")
	term := path + "." + direction + "." + nulls
	if existing := b.query.Get(key); existing != "" {
		term = existing + "," + term
	}
	b.query.Set(key, term)
	return b
}

// Limit caps the number of rows.
func (b *FilterBuilder) Limit(n int, foreignTable string) *FilterBuilder {
	if n < 0 {
		return b.fail(fmt.Errorf("limit: negative count %d", n))
	}
	b.query.Set(modifierKey(foreignTable, "limit"), strconv.Itoa(n))
	return b
}

// Range returns rows from through to, both inclusive and zero based.
func (b *FilterBuilder) Range(from, to int, foreignTable string) *FilterBuilder {
	if from < 0 || to < from {
		return b.fail(fmt.Errorf("range: invalid bounds %d..%d", from, to))
	}
	b.query.Set(modifierKey(foreignTable, "offset"), strconv.Itoa(from))
	b.query.Set(modifierKey(foreignTable, "limit"), strconv.Itoa(to-from+1))
	return b
}

// Single asks for exactly one row, returned as an object instead of an
// array.
func (b *FilterBuilder) Single() *FilterBuilder {
	b.single = true
	b.header.Set("Accept", "application/vnd.pgrst.object+json")
	return b
}

// Request builds the request. It fails if any filter or value was ill
// typed.
func (b *FilterBuilder) Request() (*Request, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	query := make(url.Values, len(b.query)+len(b.filters))
	for k, vs := range b.query {
		query[k] = append([]string(nil), vs...)
	}
	for _, p := range b.filters {
		key, value, err := EncodePredicate(p)
		if err != nil {
			return nil, err
		}
		query.Add(key, value)
	}

	header := b.header.Clone()
	if len(b.prefer) > 0 {
		header.Set("Prefer", strings.Join(b.prefer, ","))
	}

	var body []byte
	if b.body != nil {
		var err error
		body, err = ir.MarshalIRValue(b.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
	}

	return &Request{
		ID:      b.client.ids.Generate(),
		Method:  b.method,
		BaseURL: b.client.baseURL,
		Path:    b.path,
		Query:   query,
		Header:  header,
		Body:    body,
		Returns: b.Returns(),
	}, nil
}

// Execute builds the request and sends it through the client's transport.
// Ill-typed requests are never sent.
func (b *FilterBuilder) Execute(ctx context.Context) (*Response, error) {
	req, err := b.Request()
	if err != nil {
		return nil, err
	}
	if b.client.transport == nil {
		return nil, ErrNoTransport
	}

	b.client.logger.Debug("sending request", "id", req.ID, "method", req.Method, "target", req.Target())
	resp, err := b.client.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.ID, err)
	}
	return resp, nil
}

func (b *FilterBuilder) cond(path string, op Operator, v ir.IRValue, negate bool, config string) *FilterBuilder {
	if v == nil {
		v = ir.IRNull{}
	}
	if !op.Valid() {
		return b.fail(fmt.Errorf("unknown filter operator %q", string(op)))
	}
	if _, err := resolve.SplitPath(path); err != nil {
		return b.fail(&FilterTypeError{Path: path, Operator: op, Value: v, Expected: ir.Unknown{}, Err: err})
	}
	if b.table != "" {
		if err := b.checkEmbedAliases(path); err != nil {
			return b.fail(&FilterTypeError{Path: path, Operator: op, Value: v, Expected: ir.Unknown{}, Err: err})
		}
	}

	expected := b.PathType(path)
	if err := resolve.CheckValue(expected, op.Form(), v); err != nil {
		b.fail(&FilterTypeError{Path: path, Operator: op, Value: v, Expected: expected, Err: err})
	}
	b.filters = append(b.filters, Cond{Path: path, Op: op, Value: v, Negate: negate, Config: config})
	return b
}

func (b *FilterBuilder) setCount(count Count) {
	if err := count.validate(); err != nil {
		b.fail(err)
		return
	}
	if count != CountNone {
		b.prefer = append(b.prefer, "count="+string(count))
	}
}

func (b *FilterBuilder) setBody(v ir.IRValue) {
	b.body = v
}

func (b *FilterBuilder) fail(err error) *FilterBuilder {
	b.errs = append(b.errs, err)
	return b
}

func modifierKey(foreignTable, key string) string {
	if foreignTable == "" {
		return key
	}
	return foreignTable + "." + key
}
