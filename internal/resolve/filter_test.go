package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/testutil"
)

func TestFilterTypeWorkspaceExample(t *testing.T) {
	typ, err := FilterType(testutil.WorkspaceSchema(), "workspaces", "members.users.id")
	require.NoError(t, err)
	assert.Equal(t, ir.Collection{Elem: str}, typ)
}

func TestFilterTypeDegradesToUnknown(t *testing.T) {
	typ, err := FilterType(testutil.WorkspaceSchema(), "workspaces", "members.bogus")
	assert.ErrorIs(t, err, ErrUnknownPathSegment)
	assert.Equal(t, ir.Unknown{}, typ)

	typ, err = FilterType(testutil.WorkspaceSchema(), "ghosts", "id")
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.Equal(t, ir.Unknown{}, typ)
}

func TestCheckValue(t *testing.T) {
	integer := ir.Scalar{Name: ir.TypeInteger}
	boolean := ir.Scalar{Name: ir.TypeBoolean}
	nullableNum := ir.Scalar{Name: ir.TypeNumber, Nullable: true}
	jsonT := ir.Scalar{Name: ir.TypeJSON}
	strs := ir.Collection{Elem: str}

	tests := []struct {
		name  string
		typ   ir.Type
		form  ValueForm
		value ir.IRValue
		ok    bool
	}{
		{"eq string", str, FormScalar, ir.IRString("a"), true},
		{"eq int on string", str, FormScalar, ir.IRInt(1), false},
		{"eq null on nullable", nullableNum, FormScalar, ir.IRNull{}, true},
		{"eq through fan-out", strs, FormScalar, ir.IRString("a"), true},
		{"gt float on number", nullableNum, FormScalar, ir.IRFloat(1.5), true},
		{"in ints", integer, FormList, ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, true},
		{"in mixed", integer, FormList, ir.IRArray{ir.IRInt(1), ir.IRString("2")}, false},
		{"in not a list", integer, FormList, ir.IRInt(1), false},
		{"in through fan-out", strs, FormList, ir.IRArray{ir.IRString("a")}, true},
		{"like string", str, FormPattern, ir.IRString("%a%"), true},
		{"like on integer", integer, FormPattern, ir.IRString("1%"), false},
		{"like non-string", str, FormPattern, ir.IRInt(1), false},
		{"is null", integer, FormIs, ir.IRNull{}, true},
		{"is true", boolean, FormIs, ir.IRBool(true), true},
		{"is true on integer", integer, FormIs, ir.IRBool(true), false},
		{"is string", str, FormIs, ir.IRString("null"), false},
		{"contains array on json", jsonT, FormContainer, ir.IRArray{ir.IRInt(1)}, true},
		{"contains object on json", jsonT, FormContainer, ir.IRObject{"a": ir.IRInt(1)}, true},
		{"contains array on string", str, FormContainer, ir.IRArray{}, false},
		{"contains range literal", str, FormContainer, ir.IRString("[1,5)"), true},
		{"contains int", jsonT, FormContainer, ir.IRInt(1), false},
		{"range literal", str, FormRange, ir.IRString("(1,10)"), true},
		{"range int", integer, FormRange, ir.IRInt(1), false},
		{"fts on string", str, FormText, ir.IRString("cat & dog"), true},
		{"fts on boolean", boolean, FormText, ir.IRString("x"), false},
		{"raw anything", integer, FormRaw, ir.IRString("x"), true},
		{"unknown accepts", ir.Unknown{}, FormPattern, ir.IRInt(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckValue(tt.typ, tt.form, tt.value)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotAssignable)
		})
	}
}

func TestValueFormString(t *testing.T) {
	assert.Equal(t, "list", FormList.String())
	assert.Equal(t, "ValueForm(99)", ValueForm(99).String())
}
