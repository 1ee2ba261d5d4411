package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var str = Scalar{Name: TypeString}

func TestShapeSetIsLastWriteWins(t *testing.T) {
	s := NewShape(
		F("a", str),
		F("b", str),
		F("a", Scalar{Name: TypeInteger}),
	)

	assert.Equal(t, []string{"a", "b"}, s.Keys(), "duplicate key keeps first position")
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, Scalar{Name: TypeInteger}, got)
}

func TestTypeString(t *testing.T) {
	user := NewShape(F("id", str), F("email", str))
	team := NewShape(F("workspaceId", str), F("user", Object{Shape: user}))
	row := NewShape(
		F("id", str),
		F("name", Scalar{Name: TypeString, Nullable: true}),
		F("team", Collection{Elem: Object{Shape: team}}),
		F("extra", Unknown{}),
	)

	assert.Equal(t,
		"{id: string, name: string?, team: Array<{workspaceId: string, user: {id: string, email: string}}>, extra: unknown}",
		row.String())
}

func TestEqual(t *testing.T) {
	a := Object{Shape: NewShape(F("x", str), F("y", str))}
	b := Object{Shape: NewShape(F("x", str), F("y", str))}
	reordered := Object{Shape: NewShape(F("y", str), F("x", str))}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, reordered), "key order is significant")
	assert.True(t, Equal(Collection{Elem: str}, Collection{Elem: str}))
	assert.False(t, Equal(Collection{Elem: str}, str))
	assert.True(t, Equal(Unknown{}, Unknown{}))
	assert.False(t, Equal(Unknown{}, str))
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, Scalar{Name: TypeUUID, Nullable: true}, ColumnType(NullableColumn("id", TypeUUID)))
	assert.Equal(t, Unknown{}, ColumnType(RelationColumn("r", "t", Many)))
}

func TestMarshalTypeKeepsFieldOrder(t *testing.T) {
	typ := Object{Shape: NewShape(
		F("z", str),
		F("a", Collection{Elem: Scalar{Name: TypeInteger, Nullable: true}}),
		F("m", Unknown{}),
	)}

	data, err := MarshalType(typ)
	require.NoError(t, err)
	assert.Equal(t,
		`{"fields":[{"key":"z","type":{"kind":"scalar","type":"string"}},{"key":"a","type":{"elem":{"kind":"scalar","nullable":true,"type":"integer"},"kind":"collection"}},{"key":"m","type":{"kind":"unknown"}}],"kind":"object"}`,
		string(data))

	back, err := UnmarshalType(data)
	require.NoError(t, err)
	assert.True(t, Equal(typ, back))
}

func TestUnmarshalTypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"not object", `"scalar"`},
		{"bad kind", `{"kind":"tuple"}`},
		{"bad scalar", `{"kind":"scalar","type":"money"}`},
		{"bad elem", `{"kind":"collection","elem":"x"}`},
		{"bad field", `{"kind":"object","fields":["x"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalType([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}
