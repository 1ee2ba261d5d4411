package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchema = "pgshape/schema/v1"
	DomainShape  = "pgshape/shape/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaToMap converts a schema to plain maps for canonical encoding.
// Column order inside a table is kept; it is observable through wildcards.
func SchemaToMap(s *Schema) map[string]any {
	tables := make(map[string]any, len(s.names))
	for _, t := range s.Tables() {
		cols := make([]any, 0, len(t.columns))
		for _, c := range t.columns {
			cm := map[string]any{"name": c.Name}
			if c.IsRelation() {
				cm["relation"] = map[string]any{
					"target":      c.Relation.Target,
					"cardinality": string(c.Relation.Cardinality),
				}
			} else {
				cm["type"] = string(c.Type)
				if c.Nullable {
					cm["nullable"] = true
				}
			}
			cols = append(cols, cm)
		}
		tables[t.Name] = map[string]any{"columns": cols}
	}
	return map[string]any{"tables": tables}
}

// SchemaHash computes the content-addressed identity of a schema.
// Two schemas with the same tables, columns (in order) and relationships
// share a hash.
func SchemaHash(s *Schema) (string, error) {
	canonical, err := MarshalCanonical(SchemaToMap(s))
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// MustSchemaHash is SchemaHash that panics on error.
// Schema maps contain only strings and booleans, so this cannot fail for a
// schema built by NewSchema.
func MustSchemaHash(s *Schema) string {
	h, err := SchemaHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// ShapeID computes the identity of a projection: the schema it was
// computed against, the root table, and the select string.
func ShapeID(schemaHash, table, columns string) string {
	obj := IRObject{
		"schema_hash": IRString(schemaHash),
		"table":       IRString(table),
		"columns":     IRString(columns),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		// Strings only; unreachable.
		panic(fmt.Sprintf("ShapeID: %v", err))
	}
	return hashWithDomain(DomainShape, canonical)
}
