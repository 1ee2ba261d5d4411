package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
)

func workspaceRow() ir.Type {
	user := ir.NewShape(ir.F("id", str), ir.F("email", str))
	team := ir.NewShape(ir.F("workspaceId", str), ir.F("user", ir.Object{Shape: user}))
	return ir.Object{Shape: ir.NewShape(
		ir.F("id", str),
		ir.F("name", str),
		ir.F("team", ir.Collection{Elem: ir.Object{Shape: team}}),
		ir.F("extra", ir.Unknown{}),
	)}
}

func TestTypeOfAliases(t *testing.T) {
	typ, err := TypeOf(workspaceRow(), "team.user.id")
	require.NoError(t, err)
	assert.Equal(t, ir.Collection{Elem: str}, typ)

	typ, err = TypeOf(workspaceRow(), "team.workspaceId")
	require.NoError(t, err)
	assert.Equal(t, ir.Collection{Elem: str}, typ)

	typ, err = TypeOf(workspaceRow(), "name")
	require.NoError(t, err)
	assert.Equal(t, str, typ)
}

func TestTypeOfUnknownPropagates(t *testing.T) {
	typ, err := TypeOf(workspaceRow(), "extra.anything.deep")
	require.NoError(t, err)
	assert.Equal(t, ir.Unknown{}, typ)
}

func TestTypeOfErrors(t *testing.T) {
	_, err := TypeOf(workspaceRow(), "team.members")
	assert.ErrorIs(t, err, ErrUnknownPathSegment)

	_, err = TypeOf(workspaceRow(), "team.user")
	assert.ErrorIs(t, err, ErrIncompletePath)

	_, err = TypeOf(workspaceRow(), "team")
	assert.ErrorIs(t, err, ErrIncompletePath)

	_, err = TypeOf(workspaceRow(), "name.length")
	assert.ErrorIs(t, err, ErrUnknownPathSegment)

	_, err = TypeOf(workspaceRow(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}
