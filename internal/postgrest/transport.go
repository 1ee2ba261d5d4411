package postgrest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoTransport is returned by Execute on a client built without one.
var ErrNoTransport = errors.New("no transport configured")

// Response is the raw outcome of a request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport sends requests. Implementations must be safe for concurrent
// use.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport sends requests with a net/http client.
type HTTPTransport struct {
	Client *http.Client // nil means http.DefaultClient
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", req.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", req.ID, err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
