package postgrest

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/shape"
)

// IDGenerator produces request IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 request IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Client builds typed requests against one PostgREST endpoint and schema.
// It is safe for concurrent use; builders are not.
type Client struct {
	baseURL   string
	schema    *ir.Schema
	shapes    *shape.Cache
	transport Transport
	ids       IDGenerator
	header    http.Header
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport sets the transport used by Execute.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithIDGenerator replaces the UUIDv7 request ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithShapeCache shares a projection cache between clients. The cache
// must have been built for the same schema.
func WithShapeCache(cache *shape.Cache) Option {
	return func(c *Client) {
		c.shapes = cache
	}
}

// NewClient creates a client for the PostgREST server at baseURL.
func NewClient(baseURL string, schema *ir.Schema, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		schema:  schema,
		ids:     UUIDv7Generator{},
		header:  make(http.Header),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shapes == nil {
		projector := shape.NewProjector(schema, shape.WithLogger(c.logger))
		c.shapes = shape.NewCache(projector, shape.WithCacheLogger(c.logger))
	}
	return c
}

// Schema returns the client's schema.
func (c *Client) Schema() *ir.Schema {
	return c.schema
}

// Shapes returns the projection cache.
func (c *Client) Shapes() *shape.Cache {
	return c.shapes
}

// From starts an operation on table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{client: c, table: table}
}

// FromAs starts an operation on a table the schema may not know. When it
// does not, rows are typed as fallback instead of unknown.
func (c *Client) FromAs(table string, fallback ir.Type) *QueryBuilder {
	return &QueryBuilder{client: c, table: table, fallback: fallback}
}

// RPCOptions configures a function call.
type RPCOptions struct {
	Head  bool // HEAD request; params move to the query string
	Count Count
}

// RPC calls a stored function. Result is the caller-declared return type;
// filters are typed against its rows when it is a set of objects.
func (c *Client) RPC(fn string, params ir.IRObject, result ir.Type, opts RPCOptions) *FilterBuilder {
	if result == nil {
		result = ir.Unknown{}
	}
	b := c.newBuilder("/rpc/"+fn, "", result)
	b.rpc = true
	b.returnsRows = !opts.Head
	b.setCount(opts.Count)

	if opts.Head {
		b.method = http.MethodHead
		for _, key := range params.SortedKeys() {
			text, err := scalarText(params[key])
			if err != nil {
				b.fail(err)
				continue
			}
			b.query.Add(key, text)
		}
		return b
	}

	b.method = http.MethodPost
	if params == nil {
		params = ir.IRObject{}
	}
	b.setBody(params)
	return b
}

func (c *Client) newBuilder(path, table string, row ir.Type) *FilterBuilder {
	return &FilterBuilder{
		client: c,
		path:   path,
		table:  table,
		row:    row,
		query:  make(url.Values),
		header: c.header.Clone(),
	}
}
