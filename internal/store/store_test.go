package store_test

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/canvas"
	"github.com/inkwell-app/inkwell/internal/errs"
	"github.com/inkwell-app/inkwell/internal/geometry"
	"github.com/inkwell-app/inkwell/internal/store"
	"github.com/inkwell-app/inkwell/internal/storetest"
)

func testFrame() canvas.Frame {
	return canvas.Frame{
		Strokes: []canvas.Stroke{
			{
				Points: []geometry.Point{
					{X: 1.5, Y: 2.5, Pressure: 0.5},
					{X: 3.25, Y: -4.75, Pressure: 0.9},
				},
				Color:   canvas.ARGB(255, 10, 20, 30),
				PenSize: 2.5,
			},
			{
				Points:  []geometry.Point{{X: 100, Y: 200, Pressure: 0.5}},
				Color:   canvas.ARGB(255, 200, 0, 0),
				PenSize: 8,
			},
		},
		TextElements: []canvas.TextElement{
			{Position: geometry.Point{X: 10, Y: 20}, Text: "# heading"},
			{Position: geometry.Point{X: -5, Y: 99}, Text: "plain"},
		},
		Transform: geometry.ScaleAroundFocal(geometry.Translate(geometry.Identity(), 12, -7), geometry.Point{X: 3, Y: 4}, 1.5),
		Scale:     1.5,
	}
}

func mustCreateNote(t *testing.T, s *store.Store, title string) *store.Note {
	t.Helper()
	note, err := s.CreateNote(context.Background(), store.CreateNoteParams{Title: title})
	require.NoError(t, err)
	return note
}

// =============================================================================
// Canvas save/load
// =============================================================================

func TestSaveCanvas_RoundTripExact(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")

	frame := testFrame()
	require.NoError(t, s.SaveCanvas(ctx, note.ID, frame))

	loaded, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)

	require.Len(t, loaded.Strokes, len(frame.Strokes))
	for i := range frame.Strokes {
		assert.Equal(t, frame.Strokes[i].Points, loaded.Strokes[i].Points, "stroke %d points", i)
		assert.Equal(t, frame.Strokes[i].Color, loaded.Strokes[i].Color, "stroke %d color", i)
		assert.Equal(t, frame.Strokes[i].PenSize, loaded.Strokes[i].PenSize, "stroke %d pen size", i)
	}

	require.Len(t, loaded.TextElements, len(frame.TextElements))
	for i := range frame.TextElements {
		assert.Equal(t, frame.TextElements[i].Position.X, loaded.TextElements[i].Position.X)
		assert.Equal(t, frame.TextElements[i].Position.Y, loaded.TextElements[i].Position.Y)
		assert.Equal(t, frame.TextElements[i].Text, loaded.TextElements[i].Text)
	}

	for i := range frame.Transform {
		assert.InDelta(t, frame.Transform[i], loaded.Transform[i], 1e-9, "matrix slot %d", i)
	}
	assert.InDelta(t, frame.Scale, loaded.Scale, 1e-9)
}

func TestSaveCanvas_ReplacesEntireContent(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")

	require.NoError(t, s.SaveCanvas(ctx, note.ID, testFrame()))

	smaller := canvas.Frame{
		Strokes:   []canvas.Stroke{{Points: []geometry.Point{{X: 7, Y: 7, Pressure: 0.5}}, PenSize: 1}},
		Transform: geometry.Identity(),
		Scale:     1,
	}
	require.NoError(t, s.SaveCanvas(ctx, note.ID, smaller))

	loaded, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Strokes, 1)
	assert.Empty(t, loaded.TextElements)
}

func TestSaveCanvas_FailureLeavesOldContentIntact(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")

	good := testFrame()
	require.NoError(t, s.SaveCanvas(ctx, note.ID, good))

	// A stroke whose JSON exceeds the 1MB row check fails its insert after
	// the deletes already ran inside the transaction; the rollback must
	// restore the previous content.
	huge := canvas.Stroke{PenSize: 2}
	for i := 0; i < 40000; i++ {
		huge.Points = append(huge.Points, geometry.Point{X: float64(i), Y: float64(i), Pressure: 0.5})
	}
	bad := canvas.Frame{Strokes: []canvas.Stroke{huge}, Transform: geometry.Identity(), Scale: 1}

	err := s.SaveCanvas(ctx, note.ID, bad)
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))

	loaded, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Strokes, len(good.Strokes))
	assert.Equal(t, good.Strokes[0].Points, loaded.Strokes[0].Points)
	require.Len(t, loaded.TextElements, len(good.TextElements))
}

func TestLoadCanvas_MissingViewStateYieldsIdentity(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()

	frame, err := s.LoadCanvas(ctx, "no-such-note")
	require.NoError(t, err)
	assert.Empty(t, frame.Strokes)
	assert.Empty(t, frame.TextElements)
	assert.Equal(t, geometry.Identity(), frame.Transform)
	assert.Equal(t, 1.0, frame.Scale)
}

func TestLoadCanvas_DegenerateStoredMatrixRecovers(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")

	// Write corrupt view state directly: zero determinant and NaN scale are
	// both recoverable load conditions, never errors.
	_, err := s.DB().ExecContext(ctx, `
		UPDATE canvas_state SET matrix_data = ?, scale = ? WHERE note_id = ?
	`, `[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]`, 2.0, note.ID)
	require.NoError(t, err)

	frame, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, geometry.Identity(), frame.Transform)
	assert.Equal(t, 1.0, frame.Scale)

	_, err = s.DB().ExecContext(ctx, `
		UPDATE canvas_state SET matrix_data = ? WHERE note_id = ?
	`, `not json`, note.ID)
	require.NoError(t, err)

	frame, err = s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, geometry.Identity(), frame.Transform)
}

func TestLoadCanvas_SkipsUndecodableStrokeRow(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")
	require.NoError(t, s.SaveCanvas(ctx, note.ID, testFrame()))

	_, err := s.DB().ExecContext(ctx, `
		UPDATE strokes SET data = 'garbage' WHERE note_id = ? AND stroke_index = 0
	`, note.ID)
	require.NoError(t, err)

	frame, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, frame.Strokes, 1, "corrupted row skipped, good row kept")
}

// =============================================================================
// modified_at invariant
// =============================================================================

func TestModifiedAt_CanvasSaveNeverBumpsIt(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")

	require.NoError(t, s.SaveCanvas(ctx, note.ID, testFrame()))

	after, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ModifiedAt, after.ModifiedAt, "canvas-only save must not alter modified_at")
}

func TestModifiedAt_TitleUpdateAlwaysBumpsIt(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "first title")

	// Force an observable gap without sleeping.
	_, err := s.DB().ExecContext(ctx, `UPDATE notes SET modified_at = modified_at - 1000 WHERE id = ?`, note.ID)
	require.NoError(t, err)
	before, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)

	affected, err := s.UpdateTitle(ctx, note.ID, "second title")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	after, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt), "title update must bump modified_at")
	assert.Equal(t, "second title", after.Title)
}

func TestModifiedAt_FolderMoveDoesNotBumpIt(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "drawing")
	folder, err := s.CreateFolder(ctx, "work", 0)
	require.NoError(t, err)

	affected, err := s.MoveToFolder(ctx, note.ID, &folder.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	after, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ModifiedAt, after.ModifiedAt)
	require.NotNil(t, after.FolderID)
	assert.Equal(t, folder.ID, *after.FolderID)
}

// =============================================================================
// Notes, folders, tags
// =============================================================================

func TestCreateNote_TextOnlyGetsNoCanvasRow(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()

	textNote, err := s.CreateNote(ctx, store.CreateNoteParams{Title: "todo", IsTextOnly: true, TextContent: "- milk"})
	require.NoError(t, err)
	canvasNote := mustCreateNote(t, s, "sketch")

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM canvas_state WHERE note_id = ?`, textNote.ID).Scan(&count))
	assert.Zero(t, count, "text-only note must have no canvas row")
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM canvas_state WHERE note_id = ?`, canvasNote.ID).Scan(&count))
	assert.Equal(t, 1, count, "canvas note starts with an identity view-state row")
}

func TestGetNote_AbsentReturnsNilNil(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	note, err := s.GetNote(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, note)
}

func TestWriteOps_AbsentNoteAffectsZeroRows(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()

	affected, err := s.UpdateTitle(ctx, "missing", "new")
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = s.DeleteNote(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestTags_CaseSensitiveAndDeduplicated(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "tagged")

	require.NoError(t, s.AddTag(ctx, note.ID, "Work"))
	require.NoError(t, s.AddTag(ctx, note.ID, "work"))
	require.NoError(t, s.AddTag(ctx, note.ID, "Work")) // duplicate, ignored

	after, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "work"}, after.Tags)
}

func TestDeleteFolder_DetachesNotesWithoutDeletingThem(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, "projects", 0)
	require.NoError(t, err)
	n1 := mustCreateNote(t, s, "one")
	n2 := mustCreateNote(t, s, "two")
	for _, id := range []string{n1.ID, n2.ID} {
		_, err := s.MoveToFolder(ctx, id, &folder.ID)
		require.NoError(t, err)
	}

	affected, err := s.DeleteFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	for _, id := range []string{n1.ID, n2.ID} {
		note, err := s.GetNote(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, note, "notes must survive their folder")
		assert.Nil(t, note.FolderID)
	}
}

func TestDeleteNote_RemovesAllCanvasContent(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "doomed")
	require.NoError(t, s.SaveCanvas(ctx, note.ID, testFrame()))
	require.NoError(t, s.AddTag(ctx, note.ID, "temp"))

	affected, err := s.DeleteNote(ctx, note.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	for _, table := range []string{"strokes", "text_elements", "canvas_state", "note_tags"} {
		var count int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE note_id = ?`, note.ID).Scan(&count))
		assert.Zero(t, count, "%s rows must be gone", table)
	}
}

func TestUpsertNoteAt_ReplacesExistingRow(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "original")

	replacement := *note
	replacement.Title = "merged from another device"
	replacement.Tags = []string{"synced"}
	require.NoError(t, s.UpsertNoteAt(ctx, replacement))

	after, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "merged from another device", after.Title)
	assert.Equal(t, []string{"synced"}, after.Tags)

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&count))
	assert.Equal(t, 1, count)
}

// =============================================================================
// Wipe
// =============================================================================

func TestWipe_EmptiesEveryRelationAndReopens(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	note := mustCreateNote(t, s, "wiped")
	require.NoError(t, s.SaveCanvas(ctx, note.ID, testFrame()))
	_, err = s.CreateFolder(ctx, "gone", 0)
	require.NoError(t, err)

	require.NoError(t, s.Wipe(ctx))

	for _, table := range []string{"notes", "folders", "strokes", "text_elements", "canvas_state", "note_tags"} {
		var count int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&count))
		assert.Zero(t, count, "%s should be empty after wipe", table)
	}

	// The reopened handle must be fully usable.
	_ = mustCreateNote(t, s, "fresh start")
}

// =============================================================================
// Migrations
// =============================================================================

// seedV1Database creates a database at the v1 schema with one note, as a
// store from before tags/folders/text existed would have left it.
func seedV1Database(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open(store.SQLiteDriverName, path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE notes (id TEXT PRIMARY KEY, title TEXT NOT NULL, created_at INTEGER NOT NULL, modified_at INTEGER NOT NULL)`,
		`CREATE TABLE strokes (id INTEGER PRIMARY KEY AUTOINCREMENT, note_id TEXT NOT NULL, stroke_index INTEGER NOT NULL, data TEXT NOT NULL)`,
		`CREATE TABLE text_elements (id INTEGER PRIMARY KEY AUTOINCREMENT, note_id TEXT NOT NULL, text_index INTEGER NOT NULL, position_x REAL NOT NULL, position_y REAL NOT NULL, text TEXT NOT NULL)`,
		`CREATE TABLE canvas_state (note_id TEXT PRIMARY KEY, matrix_data TEXT NOT NULL, scale REAL NOT NULL)`,
		`INSERT INTO notes (id, title, created_at, modified_at) VALUES ('legacy-note', 'from v1', 1600000000, 1600000000)`,
		`PRAGMA user_version = 1`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "seeding statement failed: %s", stmt)
	}
}

func TestMigrate_UpgradesV1DatabaseToCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, store.DefaultDatabaseName)
	seedV1Database(t, path)

	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var version int
	require.NoError(t, s.DB().QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, store.SchemaVersion, version)

	// The legacy note survives and gains the new columns' defaults.
	note, err := s.GetNote(ctx, "legacy-note")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "from v1", note.Title)
	assert.False(t, note.IsTextOnly)
	assert.Nil(t, note.FolderID)

	// New-schema features work against the migrated database.
	require.NoError(t, s.AddTag(ctx, note.ID, "migrated"))
	folder, err := s.CreateFolder(ctx, "new in v3", 0)
	require.NoError(t, err)
	_, err = s.MoveToFolder(ctx, note.ID, &folder.ID)
	require.NoError(t, err)
}

func TestMigrate_ReopeningIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)
	note := mustCreateNote(t, s, "stays")
	require.NoError(t, s.Close())

	// Second and third opens re-run the migration check without damage.
	for i := 0; i < 2; i++ {
		s, err = store.Open(dir)
		require.NoError(t, err)
		got, err := s.GetNote(context.Background(), note.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NoError(t, s.Close())
	}
}

func TestMigrate_PartiallyAppliedMigrationRecovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, store.DefaultDatabaseName)
	seedV1Database(t, path)

	// Simulate a crash mid-v2: the column landed but user_version never
	// advanced. Re-running the migration must tolerate the duplicate.
	db, err := sql.Open(store.SQLiteDriverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`ALTER TABLE notes ADD COLUMN tags TEXT`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.DB().QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, store.SchemaVersion, version)
}

func TestSaveCanvas_ScaleSurvivesExtremeZoom(t *testing.T) {
	s := storetest.NewStoreInMemory(t)
	ctx := context.Background()
	note := mustCreateNote(t, s, "zoomed")

	frame := testFrame()
	frame.Transform = geometry.ScaleAroundFocal(geometry.Identity(), geometry.Point{}, 1e-4)
	frame.Scale = 1e-4
	require.NoError(t, s.SaveCanvas(ctx, note.ID, frame))

	loaded, err := s.LoadCanvas(ctx, note.ID)
	require.NoError(t, err)
	require.False(t, math.IsNaN(loaded.Scale))
	assert.InDelta(t, 1e-4, loaded.Scale, 1e-12)
}
