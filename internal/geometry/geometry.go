// Package geometry implements the coordinate math for the infinite canvas:
// an invertible 2D affine transform stored as a row-major 4x4 matrix,
// screen/canvas point mapping, and bounding-box computation. The package is
// pure math; it holds no document state and performs no I/O.
package geometry

import "math"

// DefaultPressure is substituted for input devices that report no pressure.
const DefaultPressure = 0.5

// Point is a single recorded input point in canvas coordinates.
// Pressure is normalized to [0,1] and immutable once recorded.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// NewPoint builds a point, substituting DefaultPressure when the device
// reported no pressure (zero or non-finite) and clamping the rest to [0,1].
func NewPoint(x, y, pressure float64) Point {
	if pressure <= 0 || math.IsNaN(pressure) || math.IsInf(pressure, 0) {
		pressure = DefaultPressure
	} else if pressure > 1 {
		pressure = 1
	}
	return Point{X: x, Y: y, Pressure: pressure}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside the rectangle (inclusive edges).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Transform is a row-major 4x4 affine matrix mapping canvas coordinates to
// screen coordinates. Only the 2D affine subspace is ever populated:
//
//	[ a  b  0  tx ]
//	[ c  d  0  ty ]
//	[ 0  0  1  0  ]
//	[ 0  0  0  1  ]
//
// Indices: a=0 b=1 tx=3 c=4 d=5 ty=7.
type Transform [16]float64

// Matrix slot indices for the populated 2D affine subspace.
const (
	slotA  = 0
	slotB  = 1
	slotTX = 3
	slotC  = 4
	slotD  = 5
	slotTY = 7
)

// degenerateEpsilon is the determinant magnitude below which a transform is
// treated as singular. Compounded zoom-out gestures underflow long before
// this threshold produces false positives at usable zoom levels.
const degenerateEpsilon = 1e-12

// Identity returns the identity transform.
func Identity() Transform {
	var t Transform
	t[slotA] = 1
	t[slotD] = 1
	t[10] = 1
	t[15] = 1
	return t
}

// Determinant returns the determinant of the populated 2D affine block.
func (t Transform) Determinant() float64 {
	return t[slotA]*t[slotD] - t[slotB]*t[slotC]
}

// IsDegenerate reports whether the transform cannot be safely inverted:
// any non-finite entry, or a determinant with magnitude below epsilon.
func (t Transform) IsDegenerate() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return math.Abs(t.Determinant()) < degenerateEpsilon
}

// Sanitize validates a restored transform/scale pair. A degenerate transform
// or a non-finite/non-positive scale yields the identity and scale 1.0. This
// is a recoverable condition, not an error: the canvas resets rather than
// producing NaN geometry.
func Sanitize(t Transform, scale float64) (Transform, float64, bool) {
	if t.IsDegenerate() || math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return Identity(), 1.0, false
	}
	return t, scale, true
}

// Multiply returns t * other (row-major, t applied after other).
func (t Transform) Multiply(other Transform) Transform {
	var out Transform
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += t[row*4+k] * other[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// Invert returns the inverse of the 2D affine block. The second return is
// false when the transform is degenerate; callers should substitute the
// identity in that case.
func (t Transform) Invert() (Transform, bool) {
	if t.IsDegenerate() {
		return Identity(), false
	}
	det := t.Determinant()
	inv := Identity()
	inv[slotA] = t[slotD] / det
	inv[slotB] = -t[slotB] / det
	inv[slotC] = -t[slotC] / det
	inv[slotD] = t[slotA] / det
	inv[slotTX] = (t[slotB]*t[slotTY] - t[slotD]*t[slotTX]) / det
	inv[slotTY] = (t[slotC]*t[slotTX] - t[slotA]*t[slotTY]) / det
	return inv, true
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{
		X:        t[slotA]*p.X + t[slotB]*p.Y + t[slotTX],
		Y:        t[slotC]*p.X + t[slotD]*p.Y + t[slotTY],
		Pressure: p.Pressure,
	}
}

// CanvasToScreen maps a canvas-space point to screen space.
func CanvasToScreen(t Transform, p Point) Point {
	return t.Apply(p)
}

// ScreenToCanvas maps a screen-space point back to canvas space by applying
// the inverse transform. A degenerate transform falls back to the identity,
// so the result is always finite.
func ScreenToCanvas(t Transform, p Point) Point {
	inv, ok := t.Invert()
	if !ok {
		return p
	}
	return inv.Apply(p)
}

// ScaleAroundFocal scales the transform by factor around a fixed screen
// point: T(focal) * S(factor) * T(-focal) * t. A non-positive or non-finite
// factor leaves the transform unchanged.
func ScaleAroundFocal(t Transform, focal Point, factor float64) Transform {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return t
	}
	scale := Identity()
	scale[slotA] = factor
	scale[slotD] = factor
	scale[slotTX] = focal.X - factor*focal.X
	scale[slotTY] = focal.Y - factor*focal.Y
	return scale.Multiply(t)
}

// Translate pans the transform by a screen-space delta. The translation
// slots are mutated directly instead of multiplying matrices so that many
// small pan deltas do not compound rounding error into the scale/skew block.
func Translate(t Transform, dx, dy float64) Transform {
	t[slotTX] += dx
	t[slotTY] += dy
	return t
}

// ScaleOf returns the uniform scale factor encoded in the transform, derived
// from the length of the transformed unit x vector.
func (t Transform) ScaleOf() float64 {
	return math.Hypot(t[slotA], t[slotC])
}
