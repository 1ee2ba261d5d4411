package postgrest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/testutil"
)

func TestSelectHeadAndCount(t *testing.T) {
	c := newTestClient(t, testutil.WorkspaceSchema())
	req, err := c.From("users").Select("", SelectOptions{Head: true, Count: CountExact}).Request()
	require.NoError(t, err)

	assert.Equal(t, http.MethodHead, req.Method)
	assert.Equal(t, "*", req.Query.Get("select"))
	assert.Equal(t, "count=exact", req.Header.Get("Prefer"))
	assert.Nil(t, req.Returns)
	assert.Nil(t, req.Body)
}

func TestSelectUnicodeWhitespace(t *testing.T) {
	c := newTestClient(t, testutil.WorkspaceSchema())
	q := c.From("users").Select("id,\u00a0email\v", SelectOptions{})

	req, err := q.Request()
	require.NoError(t, err)
	assert.Equal(t, "id,email", req.Query.Get("select"))
	assert.Equal(t, "{id: string, email: string}", q.Row().(ir.Object).Shape.String())
}

func TestSelectInvalidCount(t *testing.T) {
	c := newTestClient(t, testutil.WorkspaceSchema())
	err := c.From("users").Select("id", SelectOptions{Count: "precise"}).Err()
	assert.ErrorContains(t, err, "unknown count algorithm")
}

func TestSelectMalformedDegrades(t *testing.T) {
	c := newTestClient(t, testutil.WorkspaceSchema())
	q := c.From("workspaces").Select("id, ,name", SelectOptions{})

	assert.Equal(t, ir.Unknown{}, q.Row())
	assert.Error(t, q.Projection().Err)

	req, err := q.Request()
	require.NoError(t, err, "a degraded shape is not a request error")
	assert.Equal(t, "id,,name", req.Query.Get("select"))
}

func TestFromAsFallback(t *testing.T) {
	fallback := ir.Object{Shape: ir.NewShape(ir.F("id", ir.Scalar{Name: ir.TypeInteger}))}
	c := newTestClient(t, testutil.WorkspaceSchema())

	q := c.FromAs("events", fallback).Select("id, kind", SelectOptions{})
	assert.Equal(t, fallback, q.Row())
	assert.ErrorIs(t, q.Projection().Err, resolve.ErrUnknownTable)

	assert.NoError(t, q.Eq("kind", ir.IRString("x")).Err(), "paths outside the fallback are unknown")
	assert.ErrorIs(t, q.Eq("id", ir.IRString("x")).Err(), resolve.ErrNotAssignable)
}

func TestInsert(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	q := c.From("posts").Insert(ir.IRObject{"title": ir.IRString("hello"), "id": ir.IRInt(1)}, InsertOptions{})

	req, err := q.Request()
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/posts", req.Path)
	assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
	assert.JSONEq(t, `{"id":1,"title":"hello"}`, string(req.Body))
	assert.Empty(t, req.Query)

	row := req.Returns.(ir.Collection).Elem.(ir.Object)
	assert.Equal(t, []string{"id", "author_id", "title", "published", "rating", "metadata", "created_at"}, row.Shape.Keys())
}

func TestInsertMany(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	rows := ir.IRArray{
		ir.IRObject{"body": ir.IRString("a")},
		ir.IRObject{"body": ir.IRString("b"), "post_id": ir.IRInt(2)},
	}
	req, err := c.From("comments").Insert(rows, InsertOptions{Count: CountPlanned}).Request()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"body":"a"},{"body":"b","post_id":2}]`, string(req.Body))
	assert.Equal(t, "return=representation,count=planned", req.Header.Get("Prefer"))
}

func TestInsertValueErrors(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())

	err := c.From("posts").Insert(ir.IRObject{"id": ir.IRString("x")}, InsertOptions{}).Err()
	var vte *ValueTypeError
	require.ErrorAs(t, err, &vte)
	assert.Equal(t, "id", vte.Column)
	assert.ErrorIs(t, err, resolve.ErrNotAssignable)

	err = c.From("posts").Insert(ir.IRObject{"nope": ir.IRInt(1)}, InsertOptions{}).Err()
	assert.ErrorIs(t, err, resolve.ErrUnknownPathSegment)

	err = c.From("posts").Insert(ir.IRObject{"author": ir.IRObject{}}, InsertOptions{}).Err()
	assert.ErrorIs(t, err, resolve.ErrUnknownPathSegment, "relationships are not writable columns")

	err = c.From("posts").Insert(ir.IRObject{"rating": ir.IRNull{}}, InsertOptions{}).Err()
	assert.NoError(t, err, "null fits a nullable column")

	err = c.From("posts").Insert(ir.IRInt(1), InsertOptions{}).Err()
	assert.ErrorContains(t, err, "expected an object")

	err = c.FromAs("events", nil).Insert(ir.IRObject{"anything": ir.IRInt(1)}, InsertOptions{}).Err()
	assert.NoError(t, err, "rows of unknown tables are not checked")
}

func TestInsertUpsertFlagForwards(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	req, err := c.From("posts").
		Insert(ir.IRObject{"id": ir.IRInt(1)}, InsertOptions{Upsert: true, OnConflict: "id"}).
		Request()
	require.NoError(t, err)
	assert.Equal(t, "return=representation,resolution=merge-duplicates", req.Header.Get("Prefer"))
	assert.Equal(t, "id", req.Query.Get("on_conflict"))
}

func TestUpsertIgnoreDuplicatesMinimal(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	req, err := c.From("posts").
		Upsert(ir.IRObject{"id": ir.IRInt(1)}, UpsertOptions{
			Returning:        ReturnMinimal,
			Count:            CountExact,
			IgnoreDuplicates: true,
		}).
		Request()
	require.NoError(t, err)
	assert.Equal(t, "return=minimal,count=exact,resolution=ignore-duplicates", req.Header.Get("Prefer"))
	assert.Nil(t, req.Returns)
	assert.False(t, req.Query.Has("on_conflict"))
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	req, err := c.From("posts").
		Update(ir.IRObject{"published": ir.IRBool(true)}, MutateOptions{}).
		Eq("id", ir.IRInt(7)).
		Request()
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "eq.7", req.Query.Get("id"))
	assert.JSONEq(t, `{"published":true}`, string(req.Body))

	err = c.From("posts").Update(ir.IRObject{"published": ir.IRString("yes")}, MutateOptions{}).Err()
	assert.ErrorIs(t, err, resolve.ErrNotAssignable)
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	req, err := c.From("comments").
		Delete(MutateOptions{Returning: ReturnMinimal}).
		Eq("post_id", ir.IRInt(3)).
		Request()
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "return=minimal", req.Header.Get("Prefer"))
	assert.Nil(t, req.Body)
	assert.Nil(t, req.Returns)

	err = c.From("comments").Delete(MutateOptions{Returning: "everything"}).Err()
	assert.ErrorContains(t, err, "unknown returning mode")
}

func TestRPC(t *testing.T) {
	result := ir.Collection{Elem: ir.Object{Shape: ir.NewShape(
		ir.F("id", ir.Scalar{Name: ir.TypeInteger}),
		ir.F("title", str),
	)}}
	c := newTestClient(t, testutil.BlogSchema())

	q := c.RPC("search_posts", ir.IRObject{"q": ir.IRString("go")}, result, RPCOptions{}).
		Eq("title", ir.IRString("a"))
	req, err := q.Request()
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rpc/search_posts", req.Path)
	assert.JSONEq(t, `{"q":"go"}`, string(req.Body))
	assert.Equal(t, result, req.Returns)
	assert.Equal(t, "eq.a", req.Query.Get("title"))

	assert.ErrorIs(t, c.RPC("search_posts", nil, result, RPCOptions{}).Eq("id", ir.IRString("x")).Err(),
		resolve.ErrNotAssignable)

	single, err := c.RPC("search_posts", nil, result, RPCOptions{}).Single().Request()
	require.NoError(t, err)
	assert.Equal(t, result.Elem, single.Returns)
	assert.JSONEq(t, `{}`, string(single.Body))
}

func TestRPCHead(t *testing.T) {
	c := newTestClient(t, testutil.BlogSchema())
	req, err := c.RPC("count_posts", ir.IRObject{"author": ir.IRString("a"), "limit": ir.IRInt(3)}, nil,
		RPCOptions{Head: true, Count: CountEstimated}).Request()
	require.NoError(t, err)

	assert.Equal(t, http.MethodHead, req.Method)
	assert.Equal(t, "a", req.Query.Get("author"))
	assert.Equal(t, "3", req.Query.Get("limit"))
	assert.Equal(t, "count=estimated", req.Header.Get("Prefer"))
	assert.Nil(t, req.Body)
	assert.Nil(t, req.Returns)
}

func TestStripWhitespace(t *testing.T) {
	assert.Equal(t, "id,name", stripWhitespace(" id ,\n name "))
	assert.Equal(t, `"full name",id`, stripWhitespace(`"full name" , id`))
	assert.Equal(t, "id,name,email", stripWhitespace("id,\vname,\fem\u00a0ail\u2003"))
	assert.Equal(t, "\"a\u00a0b\",id", stripWhitespace("\"a\u00a0b\",\u00a0id"))
}
