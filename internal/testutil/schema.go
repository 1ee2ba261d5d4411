// Package testutil holds fixtures shared by package tests.
package testutil

import "github.com/roach88/pgshape/internal/ir"

// WorkspaceSchema is the three-table example used throughout the tests:
// workspaces -(many)-> members -(one)-> users.
func WorkspaceSchema() *ir.Schema {
	return ir.MustSchema(
		ir.NewTable("workspaces",
			ir.ScalarColumn("id", ir.TypeString),
			ir.ScalarColumn("name", ir.TypeString),
			ir.RelationColumn("members", "members", ir.Many),
		),
		ir.NewTable("members",
			ir.ScalarColumn("workspace_id", ir.TypeString),
			ir.ScalarColumn("user_id", ir.TypeString),
			ir.RelationColumn("users", "users", ir.One),
		),
		ir.NewTable("users",
			ir.ScalarColumn("id", ir.TypeString),
			ir.ScalarColumn("email", ir.TypeString),
		),
	)
}

// CategoriesSchema is a single self-referential table.
func CategoriesSchema() *ir.Schema {
	return ir.MustSchema(
		ir.NewTable("categories",
			ir.ScalarColumn("id", ir.TypeInteger),
			ir.NullableColumn("label", ir.TypeString),
			ir.RelationColumn("parent", "categories", ir.One),
			ir.RelationColumn("children", "categories", ir.Many),
		),
	)
}

// BlogSchema covers every scalar tag, nullable columns and two Many hops
// in a row (authors -> posts -> comments).
func BlogSchema() *ir.Schema {
	return ir.MustSchema(
		ir.NewTable("authors",
			ir.ScalarColumn("id", ir.TypeUUID),
			ir.ScalarColumn("name", ir.TypeString),
			ir.NullableColumn("bio", ir.TypeString),
			ir.RelationColumn("posts", "posts", ir.Many),
		),
		ir.NewTable("posts",
			ir.ScalarColumn("id", ir.TypeInteger),
			ir.ScalarColumn("author_id", ir.TypeUUID),
			ir.ScalarColumn("title", ir.TypeString),
			ir.ScalarColumn("published", ir.TypeBoolean),
			ir.NullableColumn("rating", ir.TypeNumber),
			ir.ScalarColumn("metadata", ir.TypeJSON),
			ir.ScalarColumn("created_at", ir.TypeTimestamp),
			ir.RelationColumn("author", "authors", ir.One),
			ir.RelationColumn("comments", "comments", ir.Many),
		),
		ir.NewTable("comments",
			ir.ScalarColumn("id", ir.TypeInteger),
			ir.ScalarColumn("post_id", ir.TypeInteger),
			ir.ScalarColumn("body", ir.TypeString),
		),
	)
}
