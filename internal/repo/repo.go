// Package repo composes queries over the persistence store: text search,
// sorting, and tag/folder filtering for note lists. Filters combine with
// AND semantics and are pushed into SQL rather than applied in memory.
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-app/inkwell/internal/store"
)

// SortMode selects the ordering of a note list.
type SortMode int

const (
	// SortDefault is insertion order (rowid), the order notes were created.
	SortDefault SortMode = iota
	SortByTitle
	SortByCreated
	SortByModified
)

// Query describes a note-list request. Zero values mean "no filter".
type Query struct {
	// Search matches as a case-insensitive substring of the title.
	Search string
	// Tags keeps notes carrying at least one of the given tags.
	Tags []string
	// FolderID keeps notes in the given folder.
	FolderID *string
	Sort     SortMode
}

// Repository is the read-side query layer over a store.
type Repository struct {
	store *store.Store
}

// New creates a repository over an open store.
func New(s *store.Store) *Repository {
	return &Repository{store: s}
}

// List returns the notes matching every filter in the query, in the
// requested order. Results are freshly constructed values; tags are loaded
// per note.
func (r *Repository) List(ctx context.Context, q Query) ([]store.Note, error) {
	var (
		where []string
		args  []any
	)

	if q.Search != "" {
		where = append(where, "title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	if q.FolderID != nil {
		where = append(where, "folder_id = ?")
		args = append(args, *q.FolderID)
	}
	if len(q.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.Tags)), ",")
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_tags WHERE note_tags.note_id = notes.id AND note_tags.tag IN (%s))",
			placeholders))
		for _, tag := range q.Tags {
			args = append(args, tag)
		}
	}

	query := `SELECT id, title, created_at, modified_at, folder_id, text_content, is_text_only FROM notes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(q.Sort)

	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []store.Note
	for rows.Next() {
		note, err := scanListedNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	for i := range notes {
		tags, err := r.tagsFor(ctx, notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].Tags = tags
	}
	return notes, nil
}

func orderClause(mode SortMode) string {
	switch mode {
	case SortByTitle:
		return "title COLLATE NOCASE ASC"
	case SortByCreated:
		return "created_at DESC"
	case SortByModified:
		return "modified_at DESC"
	default:
		return "rowid ASC"
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanListedNote(rows *sql.Rows) (store.Note, error) {
	var n store.Note
	var createdAt, modifiedAt int64
	var folderID, textContent sql.NullString
	var isTextOnly int64
	if err := rows.Scan(&n.ID, &n.Title, &createdAt, &modifiedAt, &folderID, &textContent, &isTextOnly); err != nil {
		return n, err
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
	return n, nil
}

func (r *Repository) tagsFor(ctx context.Context, noteID string) ([]string, error) {
	rows, err := r.store.DB().QueryContext(ctx, `SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag`, noteID)
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

// AllTags returns every distinct tag in use, for filter pickers.
func (r *Repository) AllTags(ctx context.Context) ([]string, error) {
	rows, err := r.store.DB().QueryContext(ctx, `SELECT DISTINCT tag FROM note_tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
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
