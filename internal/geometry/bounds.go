package geometry

import (
	"math"
	"strings"
)

const (
	// contentPadding is the fixed margin added around the content bounding box.
	contentPadding = 50.0

	// Glyph extent approximation for text elements. Exact metrics belong to
	// the rendering layer; the bounding box only needs a stable estimate.
	glyphWidthFactor  = 0.6
	lineHeightFactor  = 1.2
	defaultBoundsSize = 1000.0
)

// TextExtent estimates the axis-aligned box occupied by a text element
// anchored at its top-left position.
func TextExtent(pos Point, text string, fontSize float64) Rect {
	if fontSize <= 0 {
		fontSize = 16
	}
	lines := strings.Split(text, "\n")
	maxLen := 1
	for _, line := range lines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	return Rect{
		X: pos.X,
		Y: pos.Y,
		W: float64(maxLen) * fontSize * glyphWidthFactor,
		H: float64(len(lines)) * fontSize * lineHeightFactor,
	}
}

// ContentBounds computes the padded bounding box over all stroke points and
// text extents. When both inputs are empty it returns a fixed default rect
// centered on the origin, never an empty or inverted rect.
func ContentBounds(strokeRuns [][]Point, textBoxes []Rect) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	any := false

	for _, run := range strokeRuns {
		for _, p := range run {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
			any = true
		}
	}
	for _, box := range textBoxes {
		minX = math.Min(minX, box.X)
		minY = math.Min(minY, box.Y)
		maxX = math.Max(maxX, box.X+box.W)
		maxY = math.Max(maxY, box.Y+box.H)
		any = true
	}

	if !any {
		return Rect{
			X: -defaultBoundsSize / 2,
			Y: -defaultBoundsSize / 2,
			W: defaultBoundsSize,
			H: defaultBoundsSize,
		}
	}

	return Rect{
		X: minX - contentPadding,
		Y: minY - contentPadding,
		W: (maxX - minX) + 2*contentPadding,
		H: (maxY - minY) + 2*contentPadding,
	}
}

// ViewportBounds returns the canvas-space bounding box visible through a
// screen of the given size. All four corners are inverse-transformed because
// skew would make a two-corner answer wrong.
func ViewportBounds(t Transform, screenW, screenH float64) Rect {
	corners := [4]Point{
		{X: 0, Y: 0},
		{X: screenW, Y: 0},
		{X: 0, Y: screenH},
		{X: screenW, Y: screenH},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p := ScreenToCanvas(t, c)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
