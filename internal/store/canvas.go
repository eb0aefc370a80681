package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/inkwell-app/inkwell/internal/canvas"
	"github.com/inkwell-app/inkwell/internal/errs"
	"github.com/inkwell-app/inkwell/internal/geometry"
	"github.com/inkwell-app/inkwell/internal/obs"
)

// identityMatrixJSON is the row-major 4x4 identity, the view state every
// canvas note starts from.
const identityMatrixJSON = `[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1]`

// SaveCanvas replaces a note's entire canvas content in a single atomic
// transaction: delete existing stroke and text rows, insert the frame's
// strokes and text elements with explicit sequence indexes, and upsert the
// view-state row. All four steps commit together or none do; a crash
// mid-save leaves either the old or the new content, never a mix.
//
// On failure the caller's in-memory document is untouched; the same frame
// can be retried.
func (s *Store) SaveCanvas(ctx context.Context, noteID string, frame canvas.Frame) error {
	if noteID == "" {
		return errs.New(errs.InvalidArgument, "note id is required")
	}

	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to begin canvas save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM strokes WHERE note_id = ?`, noteID); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to clear strokes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM text_elements WHERE note_id = ?`, noteID); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to clear text elements", err)
	}

	for i, stroke := range frame.Strokes {
		data, err := json.Marshal(stroke)
		if err != nil {
			return errs.Wrap(errs.Internal, "failed to encode stroke", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO strokes (note_id, stroke_index, data) VALUES (?, ?, ?)
		`, noteID, i, string(data)); err != nil {
			return errs.Wrap(errs.Unavailable, "failed to insert stroke", err)
		}
	}

	for i, elem := range frame.TextElements {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO text_elements (note_id, text_index, position_x, position_y, text)
			VALUES (?, ?, ?, ?, ?)
		`, noteID, i, elem.Position.X, elem.Position.Y, elem.Text); err != nil {
			return errs.Wrap(errs.Unavailable, "failed to insert text element", err)
		}
	}

	matrix, err := json.Marshal(frame.Transform)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to encode matrix", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO canvas_state (note_id, matrix_data, scale) VALUES (?, ?, ?)
	`, noteID, string(matrix), frame.Scale); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to upsert view state", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to commit canvas save", err)
	}
	return nil
}

// LoadCanvas reads a note's canvas content: strokes and text elements in
// sequence order plus the view state. A missing view-state row yields the
// identity transform and scale 1.0, as does a degenerate stored matrix.
// Stroke rows that fail to decode are skipped rather than failing the load;
// the worst case is a note falling back toward an empty canvas.
func (s *Store) LoadCanvas(ctx context.Context, noteID string) (canvas.Frame, error) {
	frame := canvas.Frame{Transform: geometry.Identity(), Scale: 1.0}

	rows, err := s.DB().QueryContext(ctx, `
		SELECT data FROM strokes WHERE note_id = ? ORDER BY stroke_index
	`, noteID)
	if err != nil {
		return frame, errs.Wrap(errs.Unavailable, "failed to read strokes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return frame, errs.Wrap(errs.Unavailable, "failed to scan stroke", err)
		}
		var stroke canvas.Stroke
		if err := json.Unmarshal([]byte(data), &stroke); err != nil {
			obs.Note(noteID).Warn("skipping undecodable stroke row", "error", err)
			continue
		}
		frame.Strokes = append(frame.Strokes, stroke)
	}
	if err := rows.Err(); err != nil {
		return frame, errs.Wrap(errs.Unavailable, "failed to iterate strokes", err)
	}

	textRows, err := s.DB().QueryContext(ctx, `
		SELECT position_x, position_y, text FROM text_elements WHERE note_id = ? ORDER BY text_index
	`, noteID)
	if err != nil {
		return frame, errs.Wrap(errs.Unavailable, "failed to read text elements", err)
	}
	defer textRows.Close()
	for textRows.Next() {
		var elem canvas.TextElement
		if err := textRows.Scan(&elem.Position.X, &elem.Position.Y, &elem.Text); err != nil {
			return frame, errs.Wrap(errs.Unavailable, "failed to scan text element", err)
		}
		frame.TextElements = append(frame.TextElements, elem)
	}
	if err := textRows.Err(); err != nil {
		return frame, errs.Wrap(errs.Unavailable, "failed to iterate text elements", err)
	}

	var matrixData string
	var scale float64
	err = s.DB().QueryRowContext(ctx, `
		SELECT matrix_data, scale FROM canvas_state WHERE note_id = ?
	`, noteID).Scan(&matrixData, &scale)
	switch {
	case err == sql.ErrNoRows:
		// No view-state row: keep identity/1.0.
	case err != nil:
		return frame, errs.Wrap(errs.Unavailable, "failed to read view state", err)
	default:
		frame.Transform, frame.Scale = decodeMatrix(noteID, matrixData, scale)
	}

	return frame, nil
}

// decodeMatrix parses a stored matrix and sanitizes the result. Unparseable
// or degenerate view state recovers to identity/1.0; a corrupted view never
// fails a note load.
func decodeMatrix(noteID, matrixData string, scale float64) (geometry.Transform, float64) {
	var values []float64
	if err := json.Unmarshal([]byte(matrixData), &values); err != nil || len(values) != 16 {
		obs.Note(noteID).Warn("resetting unparseable view matrix", "error", err)
		return geometry.Identity(), 1.0
	}
	var t geometry.Transform
	copy(t[:], values)
	sanitized, sanitizedScale, ok := geometry.Sanitize(t, scale)
	if !ok {
		obs.Note(noteID).Warn("resetting degenerate view transform",
			"determinant", fmt.Sprintf("%v", t.Determinant()), "scale", scale)
	}
	return sanitized, sanitizedScale
}
