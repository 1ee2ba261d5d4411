package postgrest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/testutil"
)

type recordingTransport struct {
	mu   sync.Mutex
	reqs []*Request
	err  error
}

func (r *recordingTransport) Do(_ context.Context, req *Request) (*Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return nil, r.err
	}
	return &Response{Status: http.StatusOK, Body: []byte("[]")}, nil
}

func TestExecuteSendsWellTypedRequests(t *testing.T) {
	transport := &recordingTransport{}
	c := newTestClient(t, testutil.WorkspaceSchema(), WithTransport(transport))

	resp, err := c.From("users").Select("id", SelectOptions{}).Eq("id", ir.IRString("u1")).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.Len(t, transport.reqs, 1)
	assert.Equal(t, "GET /users?id=eq.u1&select=id", transport.reqs[0].String())
}

func TestExecuteRefusesIllTypedRequests(t *testing.T) {
	transport := &recordingTransport{}
	c := newTestClient(t, testutil.WorkspaceSchema(), WithTransport(transport))

	_, err := c.From("users").Select("id", SelectOptions{}).Eq("id", ir.IRInt(1)).Execute(context.Background())
	require.Error(t, err)
	assert.Empty(t, transport.reqs)
}

func TestExecuteWithoutTransport(t *testing.T) {
	c := newTestClient(t, testutil.WorkspaceSchema())
	_, err := c.From("users").Select("id", SelectOptions{}).Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestExecuteWrapsTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	c := newTestClient(t, testutil.WorkspaceSchema(), WithTransport(&recordingTransport{err: boom}))
	_, err := c.From("users").Select("id", SelectOptions{}).Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "00000000-0000-7000-8000-000000000001")
}

func TestHTTPTransport(t *testing.T) {
	type seen struct {
		method, path, selectParam, filter, prefer, contentType, apikey, body string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- seen{
			method:      r.Method,
			path:        r.URL.Path,
			selectParam: r.URL.Query().Get("select"),
			filter:      r.URL.Query().Get("id"),
			prefer:      r.Header.Get("Prefer"),
			contentType: r.Header.Get("Content-Type"),
			apikey:      r.Header.Get("apikey"),
			body:        string(body),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"u1"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutil.WorkspaceSchema(),
		WithTransport(&HTTPTransport{Client: srv.Client()}),
		WithHeader("apikey", "anon"),
		WithIDGenerator(testutil.NewSequentialIDs()),
	)

	resp, err := c.From("users").
		Update(ir.IRObject{"email": ir.IRString("a@b.c")}, MutateOptions{}).
		Eq("id", ir.IRString("u1")).
		Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, `[{"id":"u1"}]`, string(resp.Body))

	s := <-got
	assert.Equal(t, http.MethodPatch, s.method)
	assert.Equal(t, "/users", s.path)
	assert.Empty(t, s.selectParam)
	assert.Equal(t, "eq.u1", s.filter)
	assert.Equal(t, "return=representation", s.prefer)
	assert.Equal(t, "application/json", s.contentType)
	assert.Equal(t, "anon", s.apikey)
	assert.JSONEq(t, `{"email":"a@b.c"}`, s.body)
}
