// Package canvas implements the in-memory document model for one note: the
// ordered stroke and text sequences, the current view transform, the
// undo/redo engine, and the save scheduling that keeps persistence off the
// input path.
package canvas

import (
	"time"

	"github.com/inkwell-app/inkwell/internal/geometry"
)

// Pen size limits. Values outside the range are clamped, never rejected.
const (
	MinPenSize = 0.5
	MaxPenSize = 10.0
)

// Color is a 32-bit ARGB color. It is kept as a signed 64-bit integer so
// records produced by platforms that encode colors as signed 32-bit ints
// (where opaque white is -1) import without translation.
type Color int64

// DefaultBackground is the canvas background color (opaque white) that
// eraser strokes paint with.
const DefaultBackground Color = 0xFFFFFFFF

// ARGB assembles a color from its components.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Stroke is one continuous pen gesture: an ordered run of pressure-tagged
// points. It grows by append while the pointer is down and is immutable once
// committed. A single-point stroke renders as a dot.
type Stroke struct {
	Points  []geometry.Point `json:"points"`
	Color   Color            `json:"color"`
	PenSize float64          `json:"penSize"`
}

// Clone returns a deep copy; the point slice is never shared.
func (s Stroke) Clone() Stroke {
	points := make([]geometry.Point, len(s.Points))
	copy(points, s.Points)
	return Stroke{Points: points, Color: s.Color, PenSize: s.PenSize}
}

// TextElement is a text annotation anchored at its top-left corner in canvas
// coordinates. The text may carry a small inline markup subset (headers,
// bold, italic, inline code) that is interpreted only at render time; the
// stored string is never rewritten.
type TextElement struct {
	Position  geometry.Point `json:"position"`
	Text      string         `json:"text"`
	FontSize  float64        `json:"fontSize"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Frame is a deep-copied persistence snapshot of a document: everything a
// canvas-only save writes. Frames never alias document internals, so a
// pending save is immune to edits made after it was taken.
type Frame struct {
	Strokes      []Stroke
	TextElements []TextElement
	Transform    geometry.Transform
	Scale        float64
}

func cloneStrokes(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}

func cloneTexts(texts []TextElement) []TextElement {
	out := make([]TextElement, len(texts))
	copy(out, texts)
	return out
}

func clampPenSize(size float64) float64 {
	if size < MinPenSize {
		return MinPenSize
	}
	if size > MaxPenSize {
		return MaxPenSize
	}
	return size
}
