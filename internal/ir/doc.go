// Package ir provides the foundational types for pgshape.
//
// This package contains the schema model (tables, columns, relationships),
// the type model produced by projection and path resolution (Scalar,
// Collection, Object, Unknown and the ordered Shape), the constrained value
// types used as filter arguments, and the canonical JSON and hashing helpers
// that give schemas and projections a stable identity.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A Schema is immutable once NewSchema returns.
//   - Relationships reference their target by table name and are resolved
//     through the Schema, so self-referential tables are legal.
//   - Shapes keep insertion order; it is significant for serialization.
//   - Ambiguity always degrades to Unknown, never to a guessed type.
package ir
