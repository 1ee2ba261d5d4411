package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/testutil"
)

func TestCompileWorkspaceSchema(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
	out, err := execute(t, NewCompileCommand(rootOpts))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 table(s)")
	assert.Contains(t, out, "workspaces: 2 column(s), 1 relationship(s)")
	assert.Contains(t, out, "users: 2 column(s), 0 relationship(s)")
	assert.Contains(t, out, "Schema hash: "+ir.MustSchemaHash(testutil.WorkspaceSchema()))
	assert.NotContains(t, out, "Cycles:")
}

func TestCompileReportsCycles(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Schema: blogSchema}
	out, err := execute(t, NewCompileCommand(rootOpts))
	require.NoError(t, err)

	assert.Contains(t, out, "Cycles:")
	assert.Contains(t, out, "authors")
}

func TestCompileJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", Schema: workspaceSchema}
	out, err := execute(t, NewCompileCommand(rootOpts))
	require.NoError(t, err)

	var result CompilationResult
	assert.Equal(t, "ok", decodeData(t, out, &result))
	assert.Equal(t, ir.IRVersion, result.IRVersion)
	assert.Equal(t, ir.MustSchemaHash(testutil.WorkspaceSchema()), result.SchemaHash)
	assert.Contains(t, result.Schema, "tables")
	assert.Empty(t, result.Cycles)
}

func TestCompileOutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "schema.json")

	rootOpts := &RootOptions{Format: "text", Schema: workspaceSchema}
	out, err := execute(t, NewCompileCommand(rootOpts), "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical IR to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	want, err := ir.MarshalCanonical(ir.SchemaToMap(testutil.WorkspaceSchema()))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
}

func TestCompileErrors(t *testing.T) {
	emptyDir := t.TempDir()
	badDir := t.TempDir()
	writeFile(t, filepath.Join(badDir, "bad.cue"), "package schema\n\ntable: users: {\n\tid: string\n")

	tests := []struct {
		name string
		dir  string
		code string
	}{
		{"missing directory", "/nonexistent/schema", ErrCodeNotFound},
		{"no CUE files", emptyDir, ErrCodeNoFiles},
		{"syntax error", badDir, ErrCodeLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootOpts := &RootOptions{Format: "text", Schema: tt.dir}
			out, err := execute(t, NewCompileCommand(rootOpts))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
