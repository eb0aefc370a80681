package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/errs"
)

// Note is a stored note's metadata. modified_at changes only on title and
// text-content edits and never on canvas or view saves, so the note list does
// not reorder while the user is drawing.
type Note struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	FolderID    *string
	Tags        []string
	IsTextOnly  bool
	TextContent string
}

// Folder groups notes. Deleting a folder reassigns its notes to no folder;
// it never cascades note deletion.
type Folder struct {
	ID        string
	Name      string
	CreatedAt time.Time
	SortOrder int
}

// CreateNoteParams carries the fields for a new note.
type CreateNoteParams struct {
	Title       string
	FolderID    *string
	Tags        []string
	IsTextOnly  bool
	TextContent string
}

const noteColumns = `id, title, created_at, modified_at, folder_id, text_content, is_text_only`

// CreateNote inserts a new note. Canvas notes get an identity view-state
// row; text-only notes get no canvas row at all.
func (s *Store) CreateNote(ctx context.Context, params CreateNoteParams) (*Note, error) {
	if params.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "title is required")
	}

	noteID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to begin create", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, created_at, modified_at, folder_id, text_content, is_text_only)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, noteID, params.Title, now.Unix(), now.Unix(), params.FolderID, nullableString(params.TextContent), boolToInt(params.IsTextOnly))
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to create note", err)
	}

	if !params.IsTextOnly {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO canvas_state (note_id, matrix_data, scale) VALUES (?, ?, 1.0)
		`, noteID, identityMatrixJSON); err != nil {
			return nil, errs.Wrap(errs.Unavailable, "failed to create canvas state", err)
		}
	}

	for _, tag := range params.Tags {
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)
		`, noteID, tag); err != nil {
			return nil, errs.Wrap(errs.Unavailable, "failed to tag note", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to commit create", err)
	}

	return s.GetNote(ctx, noteID)
}

// GetNote reads a note by id. Returns (nil, nil) when the id is absent.
func (s *Store) GetNote(ctx context.Context, id string) (*Note, error) {
	row := s.DB().QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	note.Tags, err = s.tagsForNote(ctx, id)
	if err != nil {
		return nil, err
	}
	return note, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var createdAt, modifiedAt int64
	var folderID, textContent sql.NullString
	var isTextOnly int64
	err := row.Scan(&n.ID, &n.Title, &createdAt, &modifiedAt, &folderID, &textContent, &isTextOnly)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.ModifiedAt = time.Unix(modifiedAt, 0).UTC()
	if folderID.Valid {
		n.FolderID = &folderID.String
	}
	if textContent.Valid {
		n.TextContent = textContent.String
	}
	n.IsTextOnly = isTextOnly != 0
	return &n, nil
}

func (s *Store) tagsForNote(ctx context.Context, id string) ([]string, error) {
	rows, err := s.DB().QueryContext(ctx, `SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// UpdateTitle renames a note and bumps modified_at. Returns the affected
// row count; zero means the note does not exist (a no-op, not an error).
func (s *Store) UpdateTitle(ctx context.Context, id, title string) (int64, error) {
	if title == "" {
		return 0, errs.New(errs.InvalidArgument, "title is required")
	}
	res, err := s.DB().ExecContext(ctx, `
		UPDATE notes SET title = ?, modified_at = ? WHERE id = ?
	`, title, time.Now().UTC().Unix(), id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to update title", err)
	}
	return res.RowsAffected()
}

// UpdateTextContent replaces a text-only note's body and bumps modified_at.
func (s *Store) UpdateTextContent(ctx context.Context, id, content string) (int64, error) {
	res, err := s.DB().ExecContext(ctx, `
		UPDATE notes SET text_content = ?, modified_at = ? WHERE id = ?
	`, content, time.Now().UTC().Unix(), id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to update text content", err)
	}
	return res.RowsAffected()
}

// MoveToFolder reassigns a note's folder (nil for no folder). Organizational
// moves do not bump modified_at.
func (s *Store) MoveToFolder(ctx context.Context, id string, folderID *string) (int64, error) {
	res, err := s.DB().ExecContext(ctx, `
		UPDATE notes SET folder_id = ? WHERE id = ?
	`, folderID, id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to move note", err)
	}
	return res.RowsAffected()
}

// AddTag attaches a tag to a note. Tags are case-sensitive and deduplicated
// per note; re-adding an existing tag is a no-op.
func (s *Store) AddTag(ctx context.Context, id, tag string) error {
	if tag == "" {
		return errs.New(errs.InvalidArgument, "tag is required")
	}
	_, err := s.DB().ExecContext(ctx, `
		INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)
	`, id, tag)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to add tag", err)
	}
	return nil
}

// RemoveTag detaches a tag from a note.
func (s *Store) RemoveTag(ctx context.Context, id, tag string) (int64, error) {
	res, err := s.DB().ExecContext(ctx, `
		DELETE FROM note_tags WHERE note_id = ? AND tag = ?
	`, id, tag)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to remove tag", err)
	}
	return res.RowsAffected()
}

// DeleteNote removes a note and all of its canvas content in one
// transaction. Returns the affected note-row count.
func (s *Store) DeleteNote(ctx context.Context, id string) (int64, error) {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to begin delete", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM strokes WHERE note_id = ?`,
		`DELETE FROM text_elements WHERE note_id = ?`,
		`DELETE FROM canvas_state WHERE note_id = ?`,
		`DELETE FROM note_tags WHERE note_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return 0, errs.Wrap(errs.Unavailable, "failed to delete note content", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to delete note", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to commit delete", err)
	}
	return affected, nil
}

// UpsertNoteAt writes a note at an exact id, replacing any existing row with
// that id. Used by import and sync merge, which carry their own ids and
// timestamps.
func (s *Store) UpsertNoteAt(ctx context.Context, note Note) error {
	if note.ID == "" || note.Title == "" {
		return errs.New(errs.InvalidArgument, "note id and title are required")
	}

	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to begin upsert", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO notes (id, title, created_at, modified_at, folder_id, text_content, is_text_only)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Title, note.CreatedAt.Unix(), note.ModifiedAt.Unix(),
		note.FolderID, nullableString(note.TextContent), boolToInt(note.IsTextOnly))
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to upsert note", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, note.ID); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to reset tags", err)
	}
	for _, tag := range note.Tags {
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)
		`, note.ID, tag); err != nil {
			return errs.Wrap(errs.Unavailable, "failed to tag note", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to commit upsert", err)
	}
	return nil
}

// CreateFolder inserts a new folder.
func (s *Store) CreateFolder(ctx context.Context, name string, sortOrder int) (*Folder, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "folder name is required")
	}
	f := &Folder{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		SortOrder: sortOrder,
	}
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO folders (id, name, created_at, sort_order) VALUES (?, ?, ?, ?)
	`, f.ID, f.Name, f.CreatedAt.Unix(), f.SortOrder)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to create folder", err)
	}
	return f, nil
}

// UpsertFolderAt writes a folder at an exact id, for import.
func (s *Store) UpsertFolderAt(ctx context.Context, f Folder) error {
	if f.ID == "" || f.Name == "" {
		return errs.New(errs.InvalidArgument, "folder id and name are required")
	}
	_, err := s.DB().ExecContext(ctx, `
		INSERT OR REPLACE INTO folders (id, name, created_at, sort_order) VALUES (?, ?, ?, ?)
	`, f.ID, f.Name, f.CreatedAt.Unix(), f.SortOrder)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to upsert folder", err)
	}
	return nil
}

// ListFolders returns all folders ordered by sort order, then name.
func (s *Store) ListFolders(ctx context.Context) ([]Folder, error) {
	rows, err := s.DB().QueryContext(ctx, `
		SELECT id, name, created_at, sort_order FROM folders ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.Name, &createdAt, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.CreatedAt = time.Unix(createdAt, 0).UTC()
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// RenameFolder changes a folder's name.
func (s *Store) RenameFolder(ctx context.Context, id, name string) (int64, error) {
	if name == "" {
		return 0, errs.New(errs.InvalidArgument, "folder name is required")
	}
	res, err := s.DB().ExecContext(ctx, `UPDATE folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to rename folder", err)
	}
	return res.RowsAffected()
}

// DeleteFolder removes a folder and reassigns its notes to no folder in the
// same transaction. Notes are never deleted with their folder.
func (s *Store) DeleteFolder(ctx context.Context, id string) (int64, error) {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to begin folder delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE notes SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to detach notes", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to delete folder", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(errs.Unavailable, "failed to commit folder delete", err)
	}
	return affected, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
