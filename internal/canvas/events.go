package canvas

import (
	"context"

	"github.com/inkwell-app/inkwell/internal/geometry"
)

// EventKind discriminates canvas events.
type EventKind int

const (
	EventStrokeBegin EventKind = iota
	EventPointAppended
	EventStrokeCommitted
	EventTextCommitted
	EventViewChanged
)

// Event is one gesture-layer occurrence. The gesture layer emits values;
// the Engine consumes them. This decouples input cadence from persistence
// cadence: the engine, not the gesture callbacks, decides when to save.
type Event struct {
	Kind EventKind

	// StrokeBegin / PointAppended
	Point   geometry.Point
	Color   Color
	PenSize float64
	Eraser  bool
	Stroke  int

	// TextCommitted
	Text      string
	FontSize  float64
	TextIndex int // existing element index, -1 for a new element

	// ViewChanged
	Transform geometry.Transform
	Scale     float64
}

// DefaultCheckpointStride is how many appended points pass between
// checkpoint saves during a long stroke. A crash loses at most this many
// points of the in-progress stroke.
const DefaultCheckpointStride = 200

// Engine applies events to a document and schedules saves. Saves fire on
// stroke commit, text commit, and gesture end (view change), never on
// every intermediate point. Very long strokes additionally checkpoint every
// stride points.
type Engine struct {
	doc    *Document
	saver  *Saver
	stride int

	sincePoints int
}

// NewEngine wires a document to a saver. A stride of 0 uses the default.
func NewEngine(doc *Document, saver *Saver, stride int) *Engine {
	if stride <= 0 {
		stride = DefaultCheckpointStride
	}
	return &Engine{doc: doc, saver: saver, stride: stride}
}

// Document returns the engine's document.
func (e *Engine) Document() *Document { return e.doc }

// Handle applies one event. Point appends are never awaited against
// storage; a checkpoint save only enqueues a snapshot.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventStrokeBegin:
		e.doc.BeginStroke(ev.Point, ev.Color, ev.PenSize, ev.Eraser)
		e.sincePoints = 0

	case EventPointAppended:
		e.doc.AppendPoint(ev.Stroke, ev.Point)
		e.sincePoints++
		if e.sincePoints >= e.stride {
			e.sincePoints = 0
			e.saver.Checkpoint(ctx, e.doc.NoteID(), e.doc.Snapshot())
		}

	case EventStrokeCommitted:
		e.doc.CommitStroke()
		e.saver.Enqueue(ctx, e.doc.NoteID(), e.doc.Snapshot())

	case EventTextCommitted:
		if session := e.doc.StartTextEdit(ev.Point, ev.TextIndex); session != nil {
			session.Submit(ev.Text, ev.FontSize)
			e.saver.Enqueue(ctx, e.doc.NoteID(), e.doc.Snapshot())
		}

	case EventViewChanged:
		if e.doc.SetTransform(ev.Transform, ev.Scale) {
			e.saver.Enqueue(ctx, e.doc.NoteID(), e.doc.Snapshot())
		}
	}
}
