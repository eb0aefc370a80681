package canvas

// snapshot is one undo/redo entry: deep copies of the stroke and text
// sequences. The view transform and scale are deliberately excluded: view
// changes are not undoable.
type snapshot struct {
	strokes []Stroke
	texts   []TextElement
}

// history is the two-stack undo/redo engine. The document is Clean at load
// (both stacks empty); every destructive edit pushes an undo entry and
// clears the redo stack. Stored snapshots are deep copies, so mutating the
// live document never aliases history state.
type history struct {
	undo  []snapshot
	redo  []snapshot
	limit int // 0 means unbounded
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// recordEdit captures the pre-edit state as an undo boundary and clears
// the redo stack.
func (h *history) recordEdit(strokes []Stroke, texts []TextElement) {
	h.undo = append(h.undo, snapshot{strokes: cloneStrokes(strokes), texts: cloneTexts(texts)})
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = h.redo[:0]
}

// popUndo exchanges the current state for the most recent undo entry,
// pushing the current state onto the redo stack. Returns false on an empty
// undo stack (no-op).
func (h *history) popUndo(strokes []Stroke, texts []TextElement) (snapshot, bool) {
	if len(h.undo) == 0 {
		return snapshot{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, snapshot{strokes: cloneStrokes(strokes), texts: cloneTexts(texts)})
	return top, true
}

// popRedo is the inverse of popUndo. Returns false on an empty redo stack.
func (h *history) popRedo(strokes []Stroke, texts []TextElement) (snapshot, bool) {
	if len(h.redo) == 0 {
		return snapshot{}, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, snapshot{strokes: cloneStrokes(strokes), texts: cloneTexts(texts)})
	return top, true
}

// CanUndo reports whether an undo entry is available.
func (h *history) canUndo() bool { return len(h.undo) > 0 }

// canRedo reports whether a redo entry is available.
func (h *history) canRedo() bool { return len(h.redo) > 0 }
