package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixturesBuild(t *testing.T) {
	assert.Equal(t, []string{"members", "users", "workspaces"}, WorkspaceSchema().TableNames())
	assert.Equal(t, []string{"categories"}, CategoriesSchema().TableNames())
	assert.Equal(t, []string{"authors", "comments", "posts"}, BlogSchema().TableNames())
}
