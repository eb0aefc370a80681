// Package codec converts notes and their canvas content to and from the
// portable record form used for backup files and for exchange with the sync
// collaborator.
//
// Encoding is straightforward; decoding is defensive. Every incoming field
// is type-checked before use, and a malformed record fails alone with a
// descriptive reason instead of aborting the batch it arrived in.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkwell-app/inkwell/internal/canvas"
	"github.com/inkwell-app/inkwell/internal/errs"
	"github.com/inkwell-app/inkwell/internal/geometry"
	"github.com/inkwell-app/inkwell/internal/store"
)

// FormatVersion tags every record and file this codec produces.
const FormatVersion = "1.0"

// NoteRecord is the self-describing portable form of one note. Strokes and
// the matrix are nested JSON strings, matching the historical backup format.
type NoteRecord struct {
	Version string      `json:"version"`
	Note    NoteMeta    `json:"note"`
	Canvas  CanvasBlock `json:"canvas"`
}

// NoteMeta carries the note's metadata. ID is optional: present for sync
// merges (imported at that exact id), absent for plain backups (imported
// under a fresh id).
type NoteMeta struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	CreatedAt   int64    `json:"created_at"`
	ModifiedAt  int64    `json:"modified_at"`
	FolderID    *string  `json:"folder_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TextContent string   `json:"text_content,omitempty"`
	IsTextOnly  bool     `json:"is_text_only,omitempty"`
}

// CanvasBlock is the canvas portion of a record.
type CanvasBlock struct {
	Strokes      []string     `json:"strokes"`
	TextElements []TextRecord `json:"text_elements"`
	Matrix       string       `json:"matrix"`
	Scale        float64      `json:"scale"`
}

// TextRecord is one exported text element.
type TextRecord struct {
	Position PositionRecord `json:"position"`
	Text     string         `json:"text"`
}

// PositionRecord is a bare x/y pair.
type PositionRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ExportFile is the backup-file envelope for notes.
type ExportFile struct {
	Version    string       `json:"version"`
	ExportDate string       `json:"export_date,omitempty"`
	Notes      []NoteRecord `json:"notes"`
}

// FolderRecord is the portable form of one folder.
type FolderRecord struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	SortOrder int    `json:"sort_order"`
}

// FolderFile is the backup-file envelope for folders.
type FolderFile struct {
	Version string         `json:"version"`
	Folders []FolderRecord `json:"folders"`
}

// EncodeNote builds the portable record for a note and its canvas frame.
func EncodeNote(note store.Note, frame canvas.Frame) (NoteRecord, error) {
	block := CanvasBlock{
		Strokes:      make([]string, 0, len(frame.Strokes)),
		TextElements: make([]TextRecord, 0, len(frame.TextElements)),
		Scale:        frame.Scale,
	}
	for _, stroke := range frame.Strokes {
		data, err := json.Marshal(stroke)
		if err != nil {
			return NoteRecord{}, fmt.Errorf("failed to encode stroke: %w", err)
		}
		block.Strokes = append(block.Strokes, string(data))
	}
	for _, elem := range frame.TextElements {
		block.TextElements = append(block.TextElements, TextRecord{
			Position: PositionRecord{X: elem.Position.X, Y: elem.Position.Y},
			Text:     elem.Text,
		})
	}
	matrix, err := json.Marshal(frame.Transform)
	if err != nil {
		return NoteRecord{}, fmt.Errorf("failed to encode matrix: %w", err)
	}
	block.Matrix = string(matrix)

	return NoteRecord{
		Version: FormatVersion,
		Note: NoteMeta{
			ID:          note.ID,
			Title:       note.Title,
			CreatedAt:   note.CreatedAt.Unix(),
			ModifiedAt:  note.ModifiedAt.Unix(),
			FolderID:    note.FolderID,
			Tags:        note.Tags,
			TextContent: note.TextContent,
			IsTextOnly:  note.IsTextOnly,
		},
		Canvas: block,
	}, nil
}

// EncodeFile wraps records into a dated backup file.
func EncodeFile(records []NoteRecord) ExportFile {
	return ExportFile{
		Version:    FormatVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Notes:      records,
	}
}

// EncodeFolders builds the folder backup envelope.
func EncodeFolders(folders []store.Folder) FolderFile {
	out := FolderFile{Version: FormatVersion, Folders: make([]FolderRecord, 0, len(folders))}
	for _, f := range folders {
		out.Folders = append(out.Folders, FolderRecord{
			ID:        f.ID,
			Name:      f.Name,
			CreatedAt: f.CreatedAt.Unix(),
			SortOrder: f.SortOrder,
		})
	}
	return out
}

// ImportedNote is a fully validated, well-typed note ready to be stored.
type ImportedNote struct {
	Note  store.Note
	Frame canvas.Frame
	// HasCanvas is false for text-only records that carried no canvas block.
	HasCanvas bool
}

// DecodeNoteRecord validates one raw record into an ImportedNote. Any
// missing required field or wrong field type fails this record with an
// invalid_argument error naming the problem; the caller continues with the
// rest of its batch.
func DecodeNoteRecord(raw json.RawMessage) (*ImportedNote, error) {
	var staged struct {
		Version json.RawMessage `json:"version"`
		Note    json.RawMessage `json:"note"`
		Canvas  json.RawMessage `json:"canvas"`
	}
	if err := json.Unmarshal(raw, &staged); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "record is not a JSON object", err)
	}
	if len(staged.Note) == 0 || string(staged.Note) == "null" {
		return nil, errs.New(errs.InvalidArgument, "record is missing its note object")
	}

	var meta NoteMeta
	if err := json.Unmarshal(staged.Note, &meta); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "note object has a wrong-typed field", err)
	}
	if meta.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "note is missing a title")
	}

	imported := &ImportedNote{
		Note: store.Note{
			ID:          meta.ID,
			Title:       meta.Title,
			CreatedAt:   time.Unix(meta.CreatedAt, 0).UTC(),
			ModifiedAt:  time.Unix(meta.ModifiedAt, 0).UTC(),
			FolderID:    meta.FolderID,
			Tags:        meta.Tags,
			TextContent: meta.TextContent,
			IsTextOnly:  meta.IsTextOnly,
		},
	}

	if len(staged.Canvas) == 0 || string(staged.Canvas) == "null" {
		if meta.IsTextOnly {
			return imported, nil
		}
		return nil, errs.New(errs.InvalidArgument, "record is missing its canvas object")
	}

	var block CanvasBlock
	if err := json.Unmarshal(staged.Canvas, &block); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "canvas object has a wrong-typed field", err)
	}
	frame, err := decodeCanvasBlock(block)
	if err != nil {
		return nil, err
	}
	imported.Frame = frame
	imported.HasCanvas = true
	return imported, nil
}

func decodeCanvasBlock(block CanvasBlock) (canvas.Frame, error) {
	frame := canvas.Frame{Transform: geometry.Identity(), Scale: 1.0}

	for i, data := range block.Strokes {
		var stroke canvas.Stroke
		if err := json.Unmarshal([]byte(data), &stroke); err != nil {
			return frame, errs.Wrap(errs.InvalidArgument, fmt.Sprintf("stroke %d is unparseable", i), err)
		}
		frame.Strokes = append(frame.Strokes, stroke)
	}

	for _, rec := range block.TextElements {
		frame.TextElements = append(frame.TextElements, canvas.TextElement{
			Position: geometry.Point{X: rec.Position.X, Y: rec.Position.Y},
			Text:     rec.Text,
		})
	}

	if block.Matrix != "" {
		var values []float64
		if err := json.Unmarshal([]byte(block.Matrix), &values); err != nil || len(values) != 16 {
			return frame, errs.New(errs.InvalidArgument, "matrix is unparseable")
		}
		var t geometry.Transform
		copy(t[:], values)
		// A degenerate but well-formed matrix is recoverable, not a failure.
		frame.Transform, frame.Scale, _ = geometry.Sanitize(t, block.Scale)
	}
	return frame, nil
}

// DecodeFolderRecord validates one folder record.
func DecodeFolderRecord(raw json.RawMessage) (*store.Folder, error) {
	var rec FolderRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "folder record has a wrong-typed field", err)
	}
	if rec.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "folder is missing a name")
	}
	return &store.Folder{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
		SortOrder: rec.SortOrder,
	}, nil
}
