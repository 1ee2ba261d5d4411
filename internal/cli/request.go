package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/postgrest"
	"github.com/roach88/pgshape/internal/resolve"
)

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	Where   []string // path=op.value, path=not.op.value
	Order   []string // path[.asc|.desc][.nullsfirst|.nullslast]
	Limit   int
	Head    bool
	Count   string
	Single  bool
	Execute bool
}

// RequestResult describes a built request and, with --execute, its
// response.
type RequestResult struct {
	ID       string            `json:"id"`
	Method   string            `json:"method"`
	URL      string            `json:"url"`
	Target   string            `json:"target"`
	Header   map[string]string `json:"header,omitempty"`
	Returns  string            `json:"returns,omitempty"`
	Status   int               `json:"status,omitempty"`
	Response string            `json:"response,omitempty"`
}

// FilterArg is one parsed --where argument.
type FilterArg struct {
	Path  string
	Op    postgrest.Operator
	Value ir.IRValue
	Not   bool
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <table> [select]",
		Short: "Build a type-checked PostgREST read request",
		Long: `Build the PostgREST request for a select with filters and modifiers.

Every filter value is checked against the type of its path; an ill-typed
request is reported and never sent. Values are YAML literals, so 5 is a
number, true a boolean, null a null and [1, 2] a list. Quote a value to
force a string: email=eq."5".

Exit codes:
  0 - Request built (and sent, with --execute)
  1 - Ill-typed request or malformed argument
  2 - Command error (schema not found, transport failure)

Examples:
  pgshape request users "id, email" --where "email=like.%@acme.io"
  pgshape request workspaces id --where "members.users.id=eq.u1" --limit 10
  pgshape request posts --where "rating=not.is.null" --order "created_at.desc" --execute`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			columns := ""
			if len(args) == 2 {
				columns = args[1]
			}
			return runRequest(opts, args[0], columns, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter as path=op.value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, "order as path[.asc|.desc][.nullsfirst|.nullslast] (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum number of rows")
	cmd.Flags().BoolVar(&opts.Head, "head", false, "HEAD request; no rows come back")
	cmd.Flags().StringVar(&opts.Count, "count", "", "count algorithm (exact|planned|estimated)")
	cmd.Flags().BoolVar(&opts.Single, "single", false, "expect exactly one row")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "send the request to --base-url")

	return cmd
}

func runRequest(opts *RequestOptions, table, columns string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	filters := make([]FilterArg, 0, len(opts.Where))
	for _, raw := range opts.Where {
		f, err := ParseFilterArg(raw)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeInvalidArgument, err.Error(), nil)
		}
		filters = append(filters, f)
	}

	schema, err := loadSchemaOrFail(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	clientOpts := []postgrest.Option{postgrest.WithLogger(opts.logger())}
	if opts.Execute {
		clientOpts = append(clientOpts, postgrest.WithTransport(&postgrest.HTTPTransport{}))
	}
	client := postgrest.NewClient(opts.BaseURL, schema, clientOpts...)

	b := client.From(table).Select(columns, postgrest.SelectOptions{
		Head:  opts.Head,
		Count: postgrest.Count(opts.Count),
	})
	for _, f := range filters {
		if f.Not {
			b.Not(f.Path, f.Op, f.Value)
		} else {
			b.Where(f.Path, f.Op, f.Value)
		}
	}
	for _, raw := range opts.Order {
		path, order := ParseOrderArg(raw)
		b.Order(path, order)
	}
	if opts.Limit >= 0 {
		b.Limit(opts.Limit, "")
	}
	if opts.Single {
		b.Single()
	}

	req, err := b.Request()
	if err != nil {
		return outputRequestError(formatter, err)
	}
	result := newRequestResult(req)

	if opts.Execute {
		formatter.VerboseLog("Sending %s", req.String())
		resp, err := b.Execute(cmd.Context())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		result.Status = resp.Status
		result.Response = string(resp.Body)
	}

	return outputRequest(formatter, result)
}

// ParseFilterArg parses path=op.value or path=not.op.value. The operator
// may be a wire name or a builder name.
func ParseFilterArg(raw string) (FilterArg, error) {
	path, rest, ok := strings.Cut(raw, "=")
	if !ok || path == "" {
		return FilterArg{}, fmt.Errorf("filter %q: expected path=op.value", raw)
	}

	var f FilterArg
	f.Path = strings.TrimSpace(path)
	if after, found := strings.CutPrefix(rest, "not."); found {
		f.Not = true
		rest = after
	}

	opName, literal, _ := strings.Cut(rest, ".")
	op, err := postgrest.ParseOperator(opName)
	if err != nil {
		return FilterArg{}, fmt.Errorf("filter %q: %w", raw, err)
	}
	f.Op = op

	switch op.Form() {
	case resolve.FormPattern, resolve.FormText, resolve.FormRange:
		// These operators take text as written.
		f.Value = ir.IRString(literal)
		return f, nil
	}

	v, err := parseLiteral(literal)
	if err != nil {
		return FilterArg{}, fmt.Errorf("filter %q: %w", raw, err)
	}
	f.Value = v
	return f, nil
}

// parseLiteral reads a value as a YAML scalar or flow sequence. Text that
// is not valid YAML stays a string.
func parseLiteral(literal string) (ir.IRValue, error) {
	if literal == "" {
		return ir.IRString(""), nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(literal), &v); err != nil {
		return ir.IRString(literal), nil
	}
	if v == nil && literal != "null" {
		return ir.IRString(literal), nil
	}
	if _, isMap := v.(map[string]any); isMap {
		// Range and JSON literals are written as text on the wire.
		return ir.IRString(literal), nil
	}
	return ir.FromAny(v)
}

// ParseOrderArg splits path[.asc|.desc][.nullsfirst|.nullslast].
func ParseOrderArg(raw string) (string, postgrest.OrderOptions) {
	var opts postgrest.OrderOptions
	path := raw
	if p, ok := strings.CutSuffix(path, ".nullsfirst"); ok {
		path, opts.NullsFirst = p, true
	} else if p, ok := strings.CutSuffix(path, ".nullslast"); ok {
		path = p
	}
	if p, ok := strings.CutSuffix(path, ".desc"); ok {
		path, opts.Descending = p, true
	} else if p, ok := strings.CutSuffix(path, ".asc"); ok {
		path = p
	}
	return path, opts
}

func newRequestResult(req *postgrest.Request) RequestResult {
	result := RequestResult{
		ID:     req.ID,
		Method: req.Method,
		URL:    req.URL(),
		Target: req.Target(),
	}
	if req.Returns != nil {
		result.Returns = req.Returns.String()
	}
	if len(req.Header) > 0 {
		result.Header = make(map[string]string, len(req.Header))
		for k := range req.Header {
			result.Header[k] = req.Header.Get(k)
		}
	}
	return result
}

func outputRequest(formatter *OutputFormatter, result RequestResult) error {
	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: result, RequestID: result.ID})
	}

	fmt.Fprintf(formatter.Writer, "%s %s\n", result.Method, result.Target)
	keys := make([]string, 0, len(result.Header))
	for k := range result.Header {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", k, result.Header[k])
	}
	if result.Returns != "" {
		fmt.Fprintf(formatter.Writer, "returns %s\n", result.Returns)
	}
	if result.Status != 0 {
		fmt.Fprintf(formatter.Writer, "\n%d\n%s\n", result.Status, result.Response)
	}
	return nil
}

// outputRequestError reports every typing error the builder collected.
func outputRequestError(formatter *OutputFormatter, err error) error {
	errs := []error{err}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}

	cliErrors := make([]CLIError, len(errs))
	for i, e := range errs {
		cliErrors[i] = CLIError{Code: ResolveErrorCode(e), Message: e.Error()}
	}
	failure := NewExitError(ExitFailure, fmt.Sprintf("request rejected with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Request rejected")
	for _, e := range cliErrors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
	}
	return failure
}
