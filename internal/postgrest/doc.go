// Package postgrest is a typed request builder for PostgREST.
//
// A Client is bound to a schema. From(table).Select(columns) resolves the
// row shape the server will return, and every filter added afterwards is
// checked against it before a request can be built:
//
//	q := client.From("workspaces").
//		Select("id, name, team:members(workspaceId:workspace_id, user:users(id))").
//		Not("team.user.id", postgrest.OpEq, ir.IRString(userID)).
//		Eq("team.workspaceId", ir.IRString(workspaceID))
//	req, err := q.Request()
//
// Filter paths are looked up in the projected row first, so aliases work,
// and fall back to schema relationship names. Paths that resolve neither
// way degrade to unknown and accept any value. The package builds requests
// only; sending them is the job of a Transport.
package postgrest
