package store

// Schema migrations for the note store. The installed version lives in
// PRAGMA user_version; opening a store applies every pending migration in
// ascending order exactly once. Each migration is idempotent-safe: tables
// and indexes are guarded by IF NOT EXISTS, and duplicate-column errors from
// ADD COLUMN are caught and ignored, so re-running a partially-applied
// migration cannot corrupt state.
//
// History:
//
//	v1 base tables (notes, strokes, text_elements, canvas_state)
//	v2 tags (legacy notes.tags column plus normalized note_tags)
//	v3 folders and notes.folder_id
//	v4 notes.text_content
//	v5 notes.is_text_only

const schemaV1 = `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_modified_at ON notes(modified_at DESC);

-- data is the JSON-encoded stroke: {points:[{x,y,pressure}], color, penSize}
CREATE TABLE IF NOT EXISTS strokes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id TEXT NOT NULL,
    stroke_index INTEGER NOT NULL,
    data TEXT NOT NULL CHECK(length(data) <= 1048576)
);
CREATE INDEX IF NOT EXISTS idx_strokes_note_id ON strokes(note_id);

CREATE TABLE IF NOT EXISTS text_elements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id TEXT NOT NULL,
    text_index INTEGER NOT NULL,
    position_x REAL NOT NULL,
    position_y REAL NOT NULL,
    text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_text_elements_note_id ON text_elements(note_id);

-- matrix_data is a JSON array of 16 floats, row-major 4x4
CREATE TABLE IF NOT EXISTS canvas_state (
    note_id TEXT PRIMARY KEY,
    matrix_data TEXT NOT NULL,
    scale REAL NOT NULL
);
`

const schemaV2 = `
ALTER TABLE notes ADD COLUMN tags TEXT;

CREATE TABLE IF NOT EXISTS note_tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id TEXT NOT NULL,
    tag TEXT NOT NULL,
    UNIQUE(note_id, tag)
);
CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag);
`

const schemaV3 = `
CREATE TABLE IF NOT EXISTS folders (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

ALTER TABLE notes ADD COLUMN folder_id TEXT;
`

const schemaV4 = `
ALTER TABLE notes ADD COLUMN text_content TEXT;
`

const schemaV5 = `
ALTER TABLE notes ADD COLUMN is_text_only INTEGER NOT NULL DEFAULT 0;
`

// migrations holds every migration in order; migrations[n] upgrades a store
// at version n to version n+1.
var migrations = []string{schemaV1, schemaV2, schemaV3, schemaV4, schemaV5}

// SchemaVersion is the version a fully migrated store reports.
var SchemaVersion = len(migrations)
