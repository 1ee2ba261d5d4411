// Package store is the SQLite shape catalog.
//
// Every projection the engine computes can be recorded here, keyed by its
// content-addressed ID (ir.ShapeID). The catalog is append-only:
//
//   - writes use ON CONFLICT(id) DO NOTHING, so recording a shape twice is
//     a no-op and the first record wins
//   - ordering uses seq (a logical clock), never wall time
//   - every list query ends in ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// The catalog feeds code generation and the catalog CLI commands.
package store
