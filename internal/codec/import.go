package codec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/errs"
	"github.com/inkwell-app/inkwell/internal/obs"
	"github.com/inkwell-app/inkwell/internal/store"
)

// Importer applies backup files to a store. Records with an id merge at
// that id, replacing any existing note; records without one become fresh
// notes, so a plain backup can be restored repeatedly without colliding.
type Importer struct {
	Store *store.Store
}

// RecordFailure describes one record that could not be imported.
type RecordFailure struct {
	Index  int
	Title  string
	Reason string
}

// Summary reports the outcome of a batch import.
type Summary struct {
	Imported int
	Failed   []RecordFailure
}

// ImportNotes applies a note backup file. Each record is decoded and stored
// independently: a malformed or unstorable record is collected as a failure
// and the batch continues. The returned error covers only envelope-level
// problems, never individual records.
func (im *Importer) ImportNotes(ctx context.Context, data []byte) (*Summary, error) {
	var envelope struct {
		Version string            `json:"version"`
		Notes   []json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "backup file is not valid JSON", err)
	}
	if envelope.Notes == nil {
		return nil, errs.New(errs.InvalidArgument, "backup file has no notes array")
	}

	logger := obs.Pkg("codec")
	summary := &Summary{}
	for i, raw := range envelope.Notes {
		title, err := im.importOne(ctx, raw)
		if err != nil {
			logger.Warn("skipping unimportable record",
				"index", i, "error", err)
			summary.Failed = append(summary.Failed, RecordFailure{
				Index:  i,
				Title:  title,
				Reason: errs.MessageOf(err),
			})
			continue
		}
		summary.Imported++
	}
	return summary, nil
}

func (im *Importer) importOne(ctx context.Context, raw json.RawMessage) (string, error) {
	imported, err := DecodeNoteRecord(raw)
	if err != nil {
		return titleOf(raw), err
	}

	note := imported.Note
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if err := im.Store.UpsertNoteAt(ctx, note); err != nil {
		return note.Title, err
	}
	if imported.HasCanvas {
		if err := im.Store.SaveCanvas(ctx, note.ID, imported.Frame); err != nil {
			return note.Title, err
		}
	}
	return note.Title, nil
}

// titleOf makes a best effort at naming a failed record for the summary.
func titleOf(raw json.RawMessage) string {
	var probe struct {
		Note struct {
			Title string `json:"title"`
		} `json:"note"`
	}
	if json.Unmarshal(raw, &probe) == nil {
		return probe.Note.Title
	}
	return ""
}

// ImportFolders applies a folder backup file. Folders import before notes
// so that note records referencing them land in place.
func (im *Importer) ImportFolders(ctx context.Context, data []byte) (*Summary, error) {
	var envelope struct {
		Version string            `json:"version"`
		Folders []json.RawMessage `json:"folders"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "folder file is not valid JSON", err)
	}

	summary := &Summary{}
	for i, raw := range envelope.Folders {
		folder, err := DecodeFolderRecord(raw)
		if err == nil {
			if folder.ID == "" {
				folder.ID = uuid.NewString()
			}
			err = im.Store.UpsertFolderAt(ctx, *folder)
		}
		if err != nil {
			summary.Failed = append(summary.Failed, RecordFailure{
				Index:  i,
				Reason: errs.MessageOf(err),
			})
			continue
		}
		summary.Imported++
	}
	return summary, nil
}

// Exporter reads notes out of a store into backup form.
type Exporter struct {
	Store *store.Store
}

// ExportNote builds the record for one stored note, canvas included.
func (ex *Exporter) ExportNote(ctx context.Context, noteID string) (NoteRecord, error) {
	note, err := ex.Store.GetNote(ctx, noteID)
	if err != nil {
		return NoteRecord{}, err
	}
	if note == nil {
		return NoteRecord{}, errs.New(errs.NotFound, fmt.Sprintf("note %s does not exist", noteID))
	}
	frame, err := ex.Store.LoadCanvas(ctx, noteID)
	if err != nil {
		return NoteRecord{}, err
	}
	return EncodeNote(*note, frame)
}

// ExportNotes builds a backup file for the given note ids.
func (ex *Exporter) ExportNotes(ctx context.Context, noteIDs []string) (*ExportFile, error) {
	records := make([]NoteRecord, 0, len(noteIDs))
	for _, id := range noteIDs {
		record, err := ex.ExportNote(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	file := EncodeFile(records)
	return &file, nil
}

// ExportFolders builds the folder backup envelope from the store.
func (ex *Exporter) ExportFolders(ctx context.Context) (*FolderFile, error) {
	folders, err := ex.Store.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	file := EncodeFolders(folders)
	return &file, nil
}
