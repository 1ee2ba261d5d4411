// Package selectexpr parses PostgREST embedding select expressions.
//
// A select expression lists the columns and embedded related resources a
// request should return:
//
//	*, team:members(workspaceId:workspace_id, user:users(id, email))
//
// Grammar:
//
//	selection   := item (',' item)*
//	item        := wildcard | embed | column
//	wildcard    := '*'
//	column      := [alias ':'] identifier
//	embed       := [alias ':'] identifier '(' selection ')'
//	identifier  := (letter | digit | '_')+
//
// Whitespace between tokens is insignificant. An empty or whitespace-only
// expression is equivalent to "*".
//
// The parser is purely syntactic. It never consults a schema; whether a
// column or relationship exists is decided by the shape projector.
// Selection.String renders the canonical form, and parsing it reproduces
// the same tree.
package selectexpr
