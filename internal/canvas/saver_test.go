package canvas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/inkwell-app/inkwell/internal/geometry"
)

// fakeWriter records save order and can fail on demand.
type fakeWriter struct {
	mu     sync.Mutex
	saved  []Frame
	failWith error
	block  chan struct{} // when non-nil, saves wait on this before completing
}

func (w *fakeWriter) SaveCanvas(_ context.Context, _ string, frame Frame) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	w.saved = append(w.saved, frame)
	return nil
}

func (w *fakeWriter) savedScales() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	scales := make([]float64, len(w.saved))
	for i, f := range w.saved {
		scales[i] = f.Scale
	}
	return scales
}

func frameWithScale(scale float64) Frame {
	return Frame{Transform: geometry.Identity(), Scale: scale}
}

func TestSaver_WritesEnqueuedFrame(t *testing.T) {
	w := &fakeWriter{}
	s := NewSaver(w, nil)

	s.Enqueue(context.Background(), "note-1", frameWithScale(1))
	s.Flush()

	if scales := w.savedScales(); len(scales) != 1 || scales[0] != 1 {
		t.Fatalf("expected one save of scale 1, got %v", scales)
	}
	if s.HasPending("note-1") {
		t.Fatalf("nothing should be pending after a successful flush")
	}
}

func TestSaver_LaterSaveNeverOvertakenByEarlier(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	s := NewSaver(w, nil)
	ctx := context.Background()

	// First save blocks inside the writer; the next two arrive meanwhile and
	// coalesce. Whatever is written after the first must be the latest frame.
	s.Enqueue(ctx, "note-1", frameWithScale(1))
	s.Enqueue(ctx, "note-1", frameWithScale(2))
	s.Enqueue(ctx, "note-1", frameWithScale(3))
	close(w.block)
	s.Flush()

	scales := w.savedScales()
	if len(scales) == 0 || scales[len(scales)-1] != 3 {
		t.Fatalf("latest frame must be written last, got %v", scales)
	}
	for i := 1; i < len(scales); i++ {
		if scales[i] < scales[i-1] {
			t.Fatalf("saves out of order: %v", scales)
		}
	}
}

func TestSaver_FailedWriteRetainsFrameForRetry(t *testing.T) {
	w := &fakeWriter{failWith: errors.New("disk full")}
	s := NewSaver(w, nil)
	ctx := context.Background()

	s.Enqueue(ctx, "note-1", frameWithScale(7))
	s.Flush()

	if !s.HasPending("note-1") {
		t.Fatalf("failed save must leave the frame pending")
	}

	// Storage recovers; retry drains the retained frame.
	w.mu.Lock()
	w.failWith = nil
	w.mu.Unlock()
	s.Retry(ctx)
	s.Flush()

	if scales := w.savedScales(); len(scales) != 1 || scales[0] != 7 {
		t.Fatalf("retry should write the retained frame, got %v", scales)
	}
	if s.HasPending("note-1") {
		t.Fatalf("pending state should clear after successful retry")
	}
}

func TestSaver_NotesDrainIndependently(t *testing.T) {
	w := &fakeWriter{}
	s := NewSaver(w, nil)
	ctx := context.Background()

	s.Enqueue(ctx, "note-a", frameWithScale(1))
	s.Enqueue(ctx, "note-b", frameWithScale(2))
	s.Flush()

	if scales := w.savedScales(); len(scales) != 2 {
		t.Fatalf("both notes should have been written, got %v", scales)
	}
}

func TestSaver_CheckpointThrottled(t *testing.T) {
	w := &fakeWriter{}
	// One checkpoint per hour with burst 1: only the first passes.
	s := NewSaver(w, rate.NewLimiter(rate.Every(time.Hour), 1))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Checkpoint(ctx, "note-1", frameWithScale(float64(i)))
	}
	s.Flush()

	if scales := w.savedScales(); len(scales) != 1 {
		t.Fatalf("limiter should admit exactly one checkpoint, got %v", scales)
	}
}

func TestEngine_SavesOnCommitNotOnEveryPoint(t *testing.T) {
	w := &fakeWriter{}
	s := NewSaver(w, nil)
	doc := NewDocument("note-1")
	engine := NewEngine(doc, s, 1000)
	ctx := context.Background()

	engine.Handle(ctx, Event{Kind: EventStrokeBegin, Point: geometry.Point{X: 1}})
	for i := 0; i < 50; i++ {
		engine.Handle(ctx, Event{Kind: EventPointAppended, Stroke: 0, Point: geometry.Point{X: float64(i)}})
	}
	s.Flush()
	if len(w.savedScales()) != 0 {
		t.Fatalf("point appends must not save")
	}

	engine.Handle(ctx, Event{Kind: EventStrokeCommitted})
	s.Flush()
	if len(w.savedScales()) != 1 {
		t.Fatalf("stroke commit must save exactly once, got %d", len(w.savedScales()))
	}

	w.mu.Lock()
	saved := w.saved[0]
	w.mu.Unlock()
	if len(saved.Strokes) != 1 || len(saved.Strokes[0].Points) != 51 {
		t.Fatalf("committed frame should hold the full stroke, got %+v", saved.Strokes)
	}
}

func TestEngine_CheckpointEveryStridePoints(t *testing.T) {
	w := &fakeWriter{}
	s := NewSaver(w, nil) // no limiter: every stride checkpoint saves
	doc := NewDocument("note-1")
	engine := NewEngine(doc, s, 10)
	ctx := context.Background()

	engine.Handle(ctx, Event{Kind: EventStrokeBegin})
	for i := 0; i < 25; i++ {
		engine.Handle(ctx, Event{Kind: EventPointAppended, Stroke: 0})
	}
	s.Flush()

	if n := len(w.savedScales()); n != 2 {
		t.Fatalf("25 points at stride 10 should checkpoint twice, got %d", n)
	}
}

func TestEngine_ViewChangeSaves(t *testing.T) {
	w := &fakeWriter{}
	s := NewSaver(w, nil)
	doc := NewDocument("note-1")
	engine := NewEngine(doc, s, 0)
	ctx := context.Background()

	engine.Handle(ctx, Event{
		Kind:      EventViewChanged,
		Transform: geometry.Translate(geometry.Identity(), 10, 10),
		Scale:     2,
	})
	s.Flush()

	scales := w.savedScales()
	if len(scales) != 1 || scales[0] != 2 {
		t.Fatalf("gesture end must persist the new view state, got %v", scales)
	}
}
