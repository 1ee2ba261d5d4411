package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pgshape/internal/ir"
)

// createTestStore creates a fresh on-disk store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with a one-column shape.
func createTestRecord(id, table string, seq int64) ShapeRecord {
	return ShapeRecord{
		ID:         id,
		SchemaHash: "test-hash",
		Table:      table,
		Columns:    "id",
		Select:     "id",
		Type:       ir.Object{Shape: ir.NewShape(ir.F("id", ir.Scalar{Name: ir.TypeString}))},
		Seq:        seq,
	}
}
