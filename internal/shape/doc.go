// Package shape computes the row shape a select expression produces.
//
// The Projector applies the projection rules against a fixed schema:
//
//   - "*" contributes every scalar column of the current table, in
//     declaration order, keyed by column name.
//   - A column contributes its declared type under alias-or-name. A name
//     that is not a scalar column of the table contributes unknown.
//   - An embed projects its children against the relationship target. A
//     Many relationship wraps the nested object in a collection. An embed
//     whose relationship does not exist contributes unknown.
//
// Output keys keep selection order; a repeated key takes the last type.
// Nothing here guesses a concrete type: every failure degrades to unknown,
// and an unknown root table degrades to the caller's fallback type.
//
// The Cache memoizes projections for the lifetime of a schema. Entries are
// never evicted. Newly computed projections are stamped with a logical
// clock and handed to an optional Recorder (the SQLite catalog).
package shape
