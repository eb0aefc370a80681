// Package sync is the seam between the local store and a remote
// synchronization service. The transport and its conflict policy live
// outside this repository; this package only assembles the outgoing record
// list and applies whatever the transport hands back, funneling every
// incoming record through the codec and store exactly like a normal import.
package sync

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/codec"
	"github.com/inkwell-app/inkwell/internal/obs"
	"github.com/inkwell-app/inkwell/internal/repo"
	"github.com/inkwell-app/inkwell/internal/store"
)

// Result summarizes one sync round as reported by the transport.
type Result struct {
	Uploaded   int  `json:"uploaded"`
	Downloaded int  `json:"downloaded"`
	Conflicts  int  `json:"conflicts"`
	HasError   bool `json:"hasError"`
}

// Callbacks receive the transport's incoming records during a round.
type Callbacks struct {
	OnNoteUpdated func(ctx context.Context, noteID string, record codec.NoteRecord) error
	OnNoteCreated func(ctx context.Context, record codec.NoteRecord) error
}

// Transport pushes local records to the remote side and delivers remote
// changes through the callbacks. Implementations live outside this module.
type Transport interface {
	Sync(ctx context.Context, local []codec.NoteRecord, cb Callbacks) (Result, error)
}

// Applier runs sync rounds against a store.
type Applier struct {
	Store     *store.Store
	Transport Transport
}

// Run exports every note, hands the records to the transport, and applies
// incoming records as they arrive. Records that fail to apply are logged
// and counted as conflicts; the round itself still completes.
func (a *Applier) Run(ctx context.Context) (Result, error) {
	local, err := a.exportAll(ctx)
	if err != nil {
		return Result{HasError: true}, err
	}

	logger := obs.Pkg("sync")
	applyFailures := 0

	// Incoming records take the same defensive path as a file import.
	apply := func(ctx context.Context, id string, record codec.NoteRecord) error {
		record.Note.ID = id
		raw, err := json.Marshal(record)
		if err != nil {
			return err
		}
		imported, err := codec.DecodeNoteRecord(raw)
		if err != nil {
			return err
		}
		if err := a.Store.UpsertNoteAt(ctx, imported.Note); err != nil {
			return err
		}
		if imported.HasCanvas {
			return a.Store.SaveCanvas(ctx, imported.Note.ID, imported.Frame)
		}
		return nil
	}

	cb := Callbacks{
		OnNoteUpdated: func(ctx context.Context, noteID string, record codec.NoteRecord) error {
			if err := apply(ctx, noteID, record); err != nil {
				applyFailures++
				logger.Warn("failed to apply remote update", "note_id", noteID, "error", err)
				return err
			}
			return nil
		},
		OnNoteCreated: func(ctx context.Context, record codec.NoteRecord) error {
			id := record.Note.ID
			if id == "" {
				id = uuid.NewString()
			}
			if err := apply(ctx, id, record); err != nil {
				applyFailures++
				logger.Warn("failed to apply remote create", "note_id", id, "error", err)
				return err
			}
			return nil
		},
	}

	result, err := a.Transport.Sync(ctx, local, cb)
	if err != nil {
		result.HasError = true
		return result, err
	}
	result.Conflicts += applyFailures
	if applyFailures > 0 {
		result.HasError = true
	}
	return result, nil
}

func (a *Applier) exportAll(ctx context.Context) ([]codec.NoteRecord, error) {
	notes, err := repo.New(a.Store).List(ctx, repo.Query{})
	if err != nil {
		return nil, err
	}

	exporter := &codec.Exporter{Store: a.Store}
	records := make([]codec.NoteRecord, 0, len(notes))
	for _, note := range notes {
		record, err := exporter.ExportNote(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
