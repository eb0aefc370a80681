package canvas

import (
	"time"

	"github.com/inkwell-app/inkwell/internal/geometry"
)

// DefaultUndoDepth caps the undo stack. The design allows unbounded stacks;
// the cap keeps a marathon drawing session from holding every intermediate
// state in memory.
const DefaultUndoDepth = 100

// Document is the authoritative editable state for one note. Exactly one
// Document is live per note at a time; callers serialize mutations onto it
// (single-writer model). All accessors return copies; internal slices are
// never exposed by reference.
type Document struct {
	noteID string

	strokes []Stroke
	texts   []TextElement

	transform geometry.Transform
	scale     float64

	// activeStroke indexes the stroke currently being drawn, -1 when none.
	activeStroke int

	hist       *history
	background Color

	// textEditing locks the view while a text edit session is open so the
	// anchor point cannot drift under the open text box.
	textEditing bool

	now func() time.Time
}

// NewDocument creates an empty document with the identity transform and
// scale 1.0.
func NewDocument(noteID string) *Document {
	return &Document{
		noteID:       noteID,
		transform:    geometry.Identity(),
		scale:        1.0,
		activeStroke: -1,
		hist:         newHistory(DefaultUndoDepth),
		background:   DefaultBackground,
		now:          time.Now,
	}
}

// NewDocumentFromFrame hydrates a document from a persisted frame. The
// restored transform is validated; a degenerate matrix or invalid scale
// resets the view to identity/1.0 rather than failing the load.
func NewDocumentFromFrame(noteID string, frame Frame) *Document {
	doc := NewDocument(noteID)
	doc.strokes = cloneStrokes(frame.Strokes)
	doc.texts = cloneTexts(frame.TextElements)
	doc.transform, doc.scale, _ = geometry.Sanitize(frame.Transform, frame.Scale)
	return doc
}

// NoteID returns the identity of the note this document belongs to.
func (d *Document) NoteID() string { return d.noteID }

// SetBackground sets the color eraser strokes paint with.
func (d *Document) SetBackground(c Color) { d.background = c }

// SetUndoDepth resizes the snapshot cap on both history stacks. Values
// below one are ignored.
func (d *Document) SetUndoDepth(n int) {
	if n > 0 {
		d.hist.limit = n
	}
}

// Strokes returns a deep copy of the stroke sequence.
func (d *Document) Strokes() []Stroke { return cloneStrokes(d.strokes) }

// TextElements returns a copy of the text element sequence.
func (d *Document) TextElements() []TextElement { return cloneTexts(d.texts) }

// Transform returns the current view transform and scale.
func (d *Document) Transform() (geometry.Transform, float64) {
	return d.transform, d.scale
}

// CanUndo reports whether an undo boundary is available.
func (d *Document) CanUndo() bool { return d.hist.canUndo() }

// CanRedo reports whether a redo entry is available.
func (d *Document) CanRedo() bool { return d.hist.canRedo() }

// BeginStroke records an undo boundary and starts a new single-point stroke,
// returning its id. Eraser strokes substitute the background color, so erasing
// paints over prior geometry rather than removing points. Pen size is clamped
// to the valid range.
func (d *Document) BeginStroke(p geometry.Point, color Color, penSize float64, eraser bool) int {
	d.hist.recordEdit(d.strokes, d.texts)
	if eraser {
		color = d.background
	}
	d.strokes = append(d.strokes, Stroke{
		Points:  []geometry.Point{p},
		Color:   color,
		PenSize: clampPenSize(penSize),
	})
	d.activeStroke = len(d.strokes) - 1
	return d.activeStroke
}

// AppendPoint appends to the active stroke in O(1). Appends are not undo
// boundaries and are ignored when the id does not match the active stroke
// (a stale id after commit).
func (d *Document) AppendPoint(strokeID int, p geometry.Point) {
	if d.activeStroke < 0 || strokeID != d.activeStroke {
		return
	}
	s := &d.strokes[d.activeStroke]
	s.Points = append(s.Points, p)
}

// CommitStroke finalizes the active stroke, making it immutable. No-op when
// no stroke is active.
func (d *Document) CommitStroke() {
	d.activeStroke = -1
}

// StrokeActive reports whether a stroke is currently being drawn.
func (d *Document) StrokeActive() bool { return d.activeStroke >= 0 }

// TextSession is an open text edit. While a session is open the document's
// view is locked; Submit or Cancel releases it.
type TextSession struct {
	doc      *Document
	position geometry.Point
	index    int // existing element index, -1 for a new element
	done     bool
}

// StartTextEdit opens an edit session at a canvas position. Pass a valid
// element index to edit an existing element, or a negative index to place a
// new one. Only one session may be open at a time; a second call returns nil
// until the first is resolved.
func (d *Document) StartTextEdit(position geometry.Point, existingIndex int) *TextSession {
	if d.textEditing {
		return nil
	}
	if existingIndex >= len(d.texts) {
		existingIndex = -1
	}
	d.textEditing = true
	return &TextSession{doc: d, position: position, index: existingIndex}
}

// Initial returns the text the session started from (empty for a new
// element), for the edit box to prefill.
func (s *TextSession) Initial() string {
	if s.index >= 0 {
		return s.doc.texts[s.index].Text
	}
	return ""
}

// Submit records an undo boundary, then replaces the existing element or
// appends a new one, and unlocks the view. Submitting empty text on a new
// element places nothing (treated as Cancel).
func (s *TextSession) Submit(text string, fontSize float64) {
	if s.done {
		return
	}
	s.done = true
	s.doc.textEditing = false

	if text == "" && s.index < 0 {
		return
	}

	s.doc.hist.recordEdit(s.doc.strokes, s.doc.texts)
	elem := TextElement{
		Position:  s.position,
		Text:      text,
		FontSize:  fontSize,
		CreatedAt: s.doc.now(),
	}
	if s.index >= 0 {
		elem.CreatedAt = s.doc.texts[s.index].CreatedAt
		s.doc.texts[s.index] = elem
		return
	}
	s.doc.texts = append(s.doc.texts, elem)
}

// Cancel closes the session without mutating the document.
func (s *TextSession) Cancel() {
	if s.done {
		return
	}
	s.done = true
	s.doc.textEditing = false
}

// SetTransform replaces the view transform and scale. View changes are not
// undo boundaries. The call is suppressed while a text edit session is open,
// and a degenerate input resets the view to identity/1.0. Returns whether
// the transform was applied.
func (d *Document) SetTransform(t geometry.Transform, scale float64) bool {
	if d.textEditing {
		return false
	}
	d.transform, d.scale, _ = geometry.Sanitize(t, scale)
	return true
}

// Undo restores the most recent undo boundary. Transform and scale are
// untouched. No-op on an empty stack.
func (d *Document) Undo() bool {
	snap, ok := d.hist.popUndo(d.strokes, d.texts)
	if !ok {
		return false
	}
	d.strokes = snap.strokes
	d.texts = snap.texts
	d.activeStroke = -1
	return true
}

// Redo reverses the most recent Undo. No-op on an empty redo stack.
func (d *Document) Redo() bool {
	snap, ok := d.hist.popRedo(d.strokes, d.texts)
	if !ok {
		return false
	}
	d.strokes = snap.strokes
	d.texts = snap.texts
	d.activeStroke = -1
	return true
}

// Snapshot returns a deep-copied persistence frame of the current state.
func (d *Document) Snapshot() Frame {
	return Frame{
		Strokes:      cloneStrokes(d.strokes),
		TextElements: cloneTexts(d.texts),
		Transform:    d.transform,
		Scale:        d.scale,
	}
}

// ContentBounds returns the padded bounding box of all content, used for
// zoom-to-fit.
func (d *Document) ContentBounds() geometry.Rect {
	runs := make([][]geometry.Point, len(d.strokes))
	for i, s := range d.strokes {
		runs[i] = s.Points
	}
	boxes := make([]geometry.Rect, len(d.texts))
	for i, te := range d.texts {
		boxes[i] = geometry.TextExtent(te.Position, te.Text, te.FontSize)
	}
	return geometry.ContentBounds(runs, boxes)
}
