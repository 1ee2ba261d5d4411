// Package codegen emits Go row types for catalogued shapes.
//
// Each table gets one file. Each catalogued shape becomes a struct with
// json tags matching its output keys, plus a <Name>Select constant holding
// the canonical select that produces it:
//
//	// WorkspaceRow is the row shape of workspaces?select=id,team:members(user_id).
//	type WorkspaceRow struct {
//		ID   string           `json:"id"`
//		Team []WorkspaceRowTeam `json:"team"`
//	}
//
// Files are rendered with jennifer, several at a time.
package codegen
