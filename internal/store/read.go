package store

import (
	"context"
	"database/sql"
	"fmt"
)

const shapeColumns = `id, schema_hash, name, table_name, columns, canonical_select, shape, degraded, error, seq`

// ReadShape retrieves a single shape by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadShape(ctx context.Context, id string) (ShapeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shapeColumns+`
		FROM shapes
		WHERE id = ?
	`, id)
	return scanShape(row)
}

// ListShapes returns every catalogued shape ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty catalog.
func (s *Store) ListShapes(ctx context.Context) ([]ShapeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shapeColumns+`
		FROM shapes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query shapes: %w", err)
	}
	return collectShapes(rows)
}

// ListShapesForSchema returns the shapes recorded against one schema
// version, in the same order as ListShapes.
func (s *Store) ListShapesForSchema(ctx context.Context, schemaHash string) ([]ShapeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shapeColumns+`
		FROM shapes
		WHERE schema_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, schemaHash)
	if err != nil {
		return nil, fmt.Errorf("query shapes for schema: %w", err)
	}
	return collectShapes(rows)
}

// MaxSeq returns the highest seq in the catalog, or 0 when it is empty.
// A cache clock started at MaxSeq keeps new records ordered after old ones.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM shapes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

func collectShapes(rows *sql.Rows) ([]ShapeRecord, error) {
	defer rows.Close()

	records := []ShapeRecord{}
	for rows.Next() {
		rec, err := scanShape(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shapes: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShape(sc scanner) (ShapeRecord, error) {
	var rec ShapeRecord
	var shapeJSON string
	var degraded int
	err := sc.Scan(
		&rec.ID,
		&rec.SchemaHash,
		&rec.Name,
		&rec.Table,
		&rec.Columns,
		&rec.Select,
		&shapeJSON,
		&degraded,
		&rec.Error,
		&rec.Seq,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ShapeRecord{}, err
		}
		return ShapeRecord{}, fmt.Errorf("scan shape: %w", err)
	}

	rec.Type, err = unmarshalShape(shapeJSON)
	if err != nil {
		return ShapeRecord{}, fmt.Errorf("shape %s: %w", rec.ID, err)
	}
	rec.Degraded = degraded != 0
	return rec, nil
}
