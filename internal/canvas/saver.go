package canvas

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/inkwell-app/inkwell/internal/obs"
)

// FrameWriter persists a snapshot frame for a note. The store satisfies
// this; the saver depends only on the interface.
type FrameWriter interface {
	SaveCanvas(ctx context.Context, noteID string, frame Frame) error
}

// Saver serializes canvas saves per note. Writes for a given note are
// strictly ordered: one drain goroutine per note consumes the latest
// pending frame, so a later save can never be overtaken by an earlier,
// slower one. Intermediate frames superseded before they were written are
// coalesced away.
//
// A failed write keeps its frame pending so the next enqueue (or Retry)
// attempts again with at least that state. Storage failure is a
// pending-save state, not data loss.
type Saver struct {
	writer  FrameWriter
	limiter *rate.Limiter

	mu    sync.Mutex
	notes map[string]*noteQueue
	wg    sync.WaitGroup
}

type noteQueue struct {
	mu      sync.Mutex
	pending *Frame
	running bool
}

// DefaultCheckpointRate limits checkpoint saves during a long stroke to one
// per two seconds regardless of point cadence.
var DefaultCheckpointRate = rate.Every(2 * time.Second)

// NewSaver builds a saver over a writer. A nil limiter disables checkpoint
// throttling (every checkpoint request is honored).
func NewSaver(writer FrameWriter, limiter *rate.Limiter) *Saver {
	return &Saver{
		writer:  writer,
		limiter: limiter,
		notes:   make(map[string]*noteQueue),
	}
}

func (s *Saver) queue(noteID string) *noteQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.notes[noteID]
	if !ok {
		q = &noteQueue{}
		s.notes[noteID] = q
	}
	return q
}

// Enqueue schedules frame as the note's next write and returns immediately.
func (s *Saver) Enqueue(ctx context.Context, noteID string, frame Frame) {
	q := s.queue(noteID)
	q.mu.Lock()
	q.pending = &frame
	if !q.running {
		q.running = true
		s.wg.Add(1)
		go s.drain(ctx, noteID, q)
	}
	q.mu.Unlock()
}

// Checkpoint is a mid-stroke durability save, throttled by the rate
// limiter. Dropped checkpoints are harmless: the stroke commit saves
// unconditionally.
func (s *Saver) Checkpoint(ctx context.Context, noteID string, frame Frame) {
	if s.limiter != nil && !s.limiter.Allow() {
		return
	}
	s.Enqueue(ctx, noteID, frame)
}

func (s *Saver) drain(ctx context.Context, noteID string, q *noteQueue) {
	defer s.wg.Done()
	for {
		q.mu.Lock()
		frame := q.pending
		q.pending = nil
		if frame == nil {
			q.running = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if err := s.writer.SaveCanvas(ctx, noteID, *frame); err != nil {
			obs.Note(noteID).Warn("canvas save failed, retaining frame for retry",
				"error", err)
			q.mu.Lock()
			if q.pending == nil {
				q.pending = frame
			}
			q.running = false
			q.mu.Unlock()
			return
		}
	}
}

// Retry re-drains any note whose last write failed.
func (s *Saver) Retry(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.notes))
	for id := range s.notes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		q := s.queue(id)
		q.mu.Lock()
		if q.pending != nil && !q.running {
			q.running = true
			s.wg.Add(1)
			go s.drain(ctx, id, q)
		}
		q.mu.Unlock()
	}
}

// Flush blocks until all in-flight drains finish. Frames retained by failed
// writes remain pending; HasPending reports them.
func (s *Saver) Flush() {
	s.wg.Wait()
}

// HasPending reports whether a note has an unwritten frame (a failed save
// awaiting retry, or a write still in flight).
func (s *Saver) HasPending(noteID string) bool {
	q := s.queue(noteID)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil || q.running
}
