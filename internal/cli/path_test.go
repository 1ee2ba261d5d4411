package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFilterType(t *testing.T) {
	tests := []struct {
		table string
		path  string
		want  string
	}{
		{"workspaces", "members.users.id", "Array<string>"},
		{"workspaces", "name", "string"},
		{"members", "users.email", "string"},
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.path, func(t *testing.T) {
			rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
			out, err := execute(t, NewPathCommand(rootOpts), tt.table, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestPathErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		path  string
		code  string
	}{
		{"unknown table", "projects", "id", ErrCodeUnknownTable},
		{"unknown segment", "workspaces", "members.nope", ErrCodeUnknownSegment},
		{"ends on relationship", "workspaces", "members.users", ErrCodeIncompletePath},
		{"empty segment", "workspaces", "members..id", ErrCodeEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
			out, err := execute(t, NewPathCommand(rootOpts), tt.table, tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestPathListJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", Schema: workspaceSchema}
	out, err := execute(t, NewPathCommand(rootOpts), "workspaces", "--depth", "1")
	require.NoError(t, err)

	var result PathListResult
	assert.Equal(t, "ok", decodeData(t, out, &result))
	assert.Equal(t, 1, result.Depth)
	assert.Equal(t, []PathSummary{
		{Path: "id", Type: "string"},
		{Path: "name", Type: "string"},
		{Path: "members.workspace_id", Type: "Array<string>", FanOut: 1},
		{Path: "members.user_id", Type: "Array<string>", FanOut: 1},
	}, result.Paths)
}

func TestPathListText(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
	out, err := execute(t, NewPathCommand(rootOpts), "workspaces")
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "members.users.email")
}

func TestPathListUnknownTable(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
	_, err := execute(t, NewPathCommand(rootOpts), "projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUnknownTable)
}
