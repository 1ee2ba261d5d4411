package store

import (
	"context"
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/shape"
)

// ShapeRecord is one catalogued projection.
type ShapeRecord struct {
	ID         string
	SchemaHash string
	Name       string // optional; code generation derives one when empty
	Table      string
	Columns    string // select as written
	Select     string // canonical select; empty when it did not parse
	Type       ir.Type
	Degraded   bool
	Error      string
	Seq        int64
}

// RecordFromProjection converts a projection into a catalog row.
func RecordFromProjection(schemaHash, name string, p shape.Projection) ShapeRecord {
	rec := ShapeRecord{
		ID:         p.ID,
		SchemaHash: schemaHash,
		Name:       name,
		Table:      p.Table,
		Columns:    p.Columns,
		Select:     p.Select,
		Type:       p.Type,
		Degraded:   p.Degraded,
		Seq:        p.Seq,
	}
	if p.Err != nil {
		rec.Error = p.Err.Error()
	}
	return rec
}

// WriteShape inserts a shape record. Uses ON CONFLICT(id) DO NOTHING, so a
// duplicate ID is silently ignored and the first record wins. Reports
// whether a row was inserted.
func (s *Store) WriteShape(ctx context.Context, rec ShapeRecord) (bool, error) {
	shapeJSON, err := marshalShape(rec.Type)
	if err != nil {
		return false, fmt.Errorf("write shape: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO shapes
		(id, schema_hash, name, table_name, columns, canonical_select, shape, degraded, error, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SchemaHash,
		rec.Name,
		rec.Table,
		rec.Columns,
		rec.Select,
		shapeJSON,
		boolToInt(rec.Degraded),
		rec.Error,
		rec.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write shape: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write shape: rows affected: %w", err)
	}
	return n > 0, nil
}

// Recorder adapts a Store to shape.Recorder, stamping every record with
// the schema hash of the cache it is attached to.
type Recorder struct {
	store      *Store
	schemaHash string
}

// NewRecorder returns a recorder for projections of the schema with the
// given hash.
func (s *Store) NewRecorder(schemaHash string) *Recorder {
	return &Recorder{store: s, schemaHash: schemaHash}
}

// Record implements shape.Recorder.
func (r *Recorder) Record(p shape.Projection) error {
	_, err := r.store.WriteShape(context.Background(), RecordFromProjection(r.schemaHash, "", p))
	return err
}

var _ shape.Recorder = (*Recorder)(nil)
