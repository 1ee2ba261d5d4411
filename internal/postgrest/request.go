package postgrest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roach88/pgshape/internal/ir"
)

// Request is a fully built, type-checked PostgREST request.
type Request struct {
	ID      string // UUIDv7, for log correlation
	Method  string
	BaseURL string
	Path    string // "/workspaces" or "/rpc/fn"
	Query   url.Values
	Header  http.Header
	Body    []byte  // JSON; nil when the request has no body
	Returns ir.Type // decoded body type; nil when no rows come back
}

// Target is the path and encoded query string.
func (r *Request) Target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// URL is the absolute request URL.
func (r *Request) URL() string {
	return r.BaseURL + r.Target()
}

func (r *Request) String() string {
	return r.Method + " " + r.Target()
}

// HTTPRequest converts r into a net/http request.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build http request %s: %w", r.ID, err)
	}
	req.Header = r.Header.Clone()
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
