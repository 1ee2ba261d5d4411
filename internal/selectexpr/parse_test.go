package selectexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkspaceExample(t *testing.T) {
	sel, err := Parse("*, team:members(workspaceId:workspace_id, user:users(id, email))")
	require.NoError(t, err)

	expected := Selection{
		Wildcard{},
		Embed{
			Relation: "members",
			Alias:    "team",
			Children: Selection{
				Column{Name: "workspace_id", Alias: "workspaceId"},
				Embed{
					Relation: "users",
					Alias:    "user",
					Children: Selection{Column{Name: "id"}, Column{Name: "email"}},
				},
			},
		},
	}
	assert.Equal(t, expected, sel)
	assert.Equal(t, "*,team:members(workspaceId:workspace_id,user:users(id,email))", sel.String())
}

func TestParseEmptyIsWildcard(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		sel, err := Parse(input)
		require.NoError(t, err)
		assert.Equal(t, Selection{Wildcard{}}, sel)
	}
}

func TestParseWhitespaceInsignificant(t *testing.T) {
	a := MustParse("id,name,members(id)")
	b := MustParse("  id ,\n name , members ( id ) ")
	assert.Equal(t, a, b)
}

func TestParseAliasEqualToNameIsDropped(t *testing.T) {
	sel := MustParse("id:id, users:users(id)")
	assert.Equal(t, Selection{
		Column{Name: "id"},
		Embed{Relation: "users", Children: Selection{Column{Name: "id"}}},
	}, sel)
}

func TestParseUnicodeAndDigits(t *testing.T) {
	sel := MustParse("größe, 2fa_enabled")
	assert.Equal(t, Selection{Column{Name: "größe"}, Column{Name: "2fa_enabled"}}, sel)
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"*",
		"id",
		"id, name",
		"a:id",
		"*, members(*)",
		"x:members(y:users(z:id, *), id)",
		"a(b(c(d(e))))",
		" * , * ",
		"id:id",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			sel, err := Parse(input)
			require.NoError(t, err)

			again, err := Parse(sel.String())
			require.NoError(t, err)
			assert.Equal(t, sel, again)
			assert.Equal(t, sel.String(), again.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		pos      int
		contains string
	}{
		{"members(id", 7, "missing ')'"},
		{"members(users(id)", 7, "missing ')'"},
		{"id)", 2, "unexpected ')'"},
		{",id", 0, "leading comma"},
		{"id,", 3, "trailing comma"},
		{"id,,name", 3, "consecutive commas"},
		{"members(id,)", 11, "trailing comma"},
		{"members()", 8, "empty embed body"},
		{":id", 0, "stray ':'"},
		{"a:", 2, "expected identifier after ':'"},
		{"a:*", 2, "wildcard cannot be aliased"},
		{"*:a", 1, "after '*'"},
		{"a b", 2, "expected ',' or end of input"},
		{"m(a b)", 4, "expected ',' or ')'"},
		{"a.b", 1, "illegal character '.'"},
		{"a::text", 2, "expected identifier after ':'"},
		{"(id)", 0, "'(' must follow a relation name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.input, parseErr.Input)
			assert.Equal(t, tt.pos, parseErr.Pos)
			assert.Contains(t, parseErr.Message, tt.contains)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("(") })
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "id", Column{Name: "id"}.Key())
	assert.Equal(t, "x", Column{Name: "id", Alias: "x"}.Key())
	assert.Equal(t, "team", Embed{Relation: "members", Alias: "team"}.Key())
	assert.Equal(t, "members", Embed{Relation: "members"}.Key())
}
