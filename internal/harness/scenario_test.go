package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersCUE = `package schema

table: users: {
	id:    string
	email: string
}
`

// createTestSchema writes a one-table CUE schema under dir/schema.
func createTestSchema(t *testing.T, dir string) string {
	t.Helper()
	schemaDir := filepath.Join(dir, "schema")
	require.NoError(t, os.MkdirAll(schemaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "users.cue"), []byte(usersCUE), 0644))
	return schemaDir
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	createTestSchema(t, dir)
	path := writeScenario(t, dir, `
name: users
description: "User shapes"
schema: schema
shapes:
  - from: users
    select: "id"
    expect:
      shape: "{id: string}"
filters:
  - from: users
    path: email
    expect:
      type: string
requests:
  - from: users
    select: "id"
    where:
      - path: email
        op: like
        value: "%@x.io"
    expect:
      target: "GET /users"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "users", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "schema"), scenario.Schema, "schema resolved against the scenario file")
	require.Len(t, scenario.Shapes, 1)
	assert.Equal(t, "{id: string}", scenario.Shapes[0].Expect.Shape)
	require.Len(t, scenario.Filters, 1)
	require.Len(t, scenario.Requests, 1)
	assert.Equal(t, "%@x.io", scenario.Requests[0].Where[0].Value)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{
			name:     "missing name",
			content:  "description: d\nschema: schema\nfilters: [{from: users, path: id, expect: {type: string}}]\n",
			contains: "name is required",
		},
		{
			name:     "missing description",
			content:  "name: n\nschema: schema\nfilters: [{from: users, path: id, expect: {type: string}}]\n",
			contains: "description is required",
		},
		{
			name:     "missing schema",
			content:  "name: n\ndescription: d\nfilters: [{from: users, path: id, expect: {type: string}}]\n",
			contains: "schema is required",
		},
		{
			name:     "schema not found",
			content:  "name: n\ndescription: d\nschema: nope\nfilters: [{from: users, path: id, expect: {type: string}}]\n",
			contains: "schema directory not found",
		},
		{
			name:     "no cases",
			content:  "name: n\ndescription: d\nschema: schema\n",
			contains: "at least one",
		},
		{
			name:     "shape with both shape and error",
			content:  "name: n\ndescription: d\nschema: schema\nshapes: [{from: users, select: id, expect: {shape: x, error: parse}}]\n",
			contains: "exactly one of shape or error",
		},
		{
			name:     "unknown error kind",
			content:  "name: n\ndescription: d\nschema: schema\nfilters: [{from: users, path: id, expect: {type: unknown, error: boom}}]\n",
			contains: `unknown error kind "boom"`,
		},
		{
			name:     "filter without type",
			content:  "name: n\ndescription: d\nschema: schema\nfilters: [{from: users, path: id, expect: {}}]\n",
			contains: "type is required",
		},
		{
			name:     "request filter without op",
			content:  "name: n\ndescription: d\nschema: schema\nrequests: [{from: users, select: id, where: [{path: id}], expect: {error: type}}]\n",
			contains: "path and op are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			createTestSchema(t, dir)
			_, err := LoadScenario(writeScenario(t, dir, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadScenario(writeScenario(t, dir, "name: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	dir := t.TempDir()
	createTestSchema(t, dir)
	_, err := LoadScenario(writeScenario(t, dir, `
name: n
description: d
schema: schema
shape:
  - from: users
    select: id
    expect: {shape: "{id: string}"}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_AbsoluteSchemaPath(t *testing.T) {
	dir := t.TempDir()
	schemaDir := createTestSchema(t, dir)
	other := t.TempDir()
	path := writeScenario(t, other, "name: n\ndescription: d\nschema: "+schemaDir+"\nfilters: [{from: users, path: id, expect: {type: string}}]\n")

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, schemaDir, scenario.Schema)
}

// TestLoadExampleScenarios validates the scenario files in testdata/scenarios.
func TestLoadExampleScenarios(t *testing.T) {
	tests := []struct {
		file         string
		wantShapes   int
		wantFilters  int
		wantRequests int
	}{
		{"testdata/scenarios/workspace_shapes.yaml", 5, 5, 4},
		{"testdata/scenarios/blog_types.yaml", 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.file), func(t *testing.T) {
			scenario, err := LoadScenario(tt.file)
			require.NoError(t, err)
			assert.Len(t, scenario.Shapes, tt.wantShapes)
			assert.Len(t, scenario.Filters, tt.wantFilters)
			assert.Len(t, scenario.Requests, tt.wantRequests)
		})
	}
}
