package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Tracker serves cached reads of applications and notes and runs mutations,
// invalidating the affected cache keys after each successful one.
type Tracker struct {
	backend Backend
	cache   *QueryCache
}

// NewTracker creates a tracker over a backend and cache
func NewTracker(backend Backend, cache *QueryCache) *Tracker {
	return &Tracker{backend: backend, cache: cache}
}

// Applications returns the application list
func (t *Tracker) Applications(ctx context.Context) ([]Application, error) {
	return Query(ctx, t.cache, ApplicationsKey(), t.backend.ListApplications)
}

// Application returns one application
func (t *Tracker) Application(ctx context.Context, id int64) (*Application, error) {
	return Query(ctx, t.cache, ApplicationKey(id), func(ctx context.Context) (*Application, error) {
		return t.backend.GetApplication(ctx, id)
	})
}

// Notes returns the notes of an application, newest first
func (t *Tracker) Notes(ctx context.Context, applicationID int64) ([]Note, error) {
	return Query(ctx, t.cache, NotesKey(applicationID), func(ctx context.Context) ([]Note, error) {
		notes, err := t.backend.ListNotes(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		SortNotes(notes)
		return notes, nil
	})
}

// Note finds one note in the application's cached note list.
// The backend has no single-note read.
func (t *Tracker) Note(ctx context.Context, applicationID, noteID int64) (*Note, error) {
	notes, err := t.Notes(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if notes[i].ID == noteID {
			note := notes[i]
			return &note, nil
		}
	}
	return nil, fmt.Errorf("note %d of application %d: %w", noteID, applicationID, ErrNoteNotFound)
}

// CreateApplication validates and creates an application
func (t *Tracker) CreateApplication(ctx context.Context, req ApplicationRequest) (*Application, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	app, err := t.backend.CreateApplication(ctx, req)
	if err != nil {
		return nil, err
	}
	t.cache.Invalidate(ApplicationsKey())
	return app, nil
}

// UpdateApplication validates and fully replaces an application
func (t *Tracker) UpdateApplication(ctx context.Context, id int64, req ApplicationRequest) (*Application, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	app, err := t.backend.UpdateApplication(ctx, id, req)
	if err != nil {
		return nil, err
	}
	t.cache.Invalidate(ApplicationsKey())
	t.cache.Invalidate(ApplicationKey(id))
	return app, nil
}

// DeleteApplication deletes an application; its notes go with it
func (t *Tracker) DeleteApplication(ctx context.Context, id int64) error {
	if err := t.backend.DeleteApplication(ctx, id); err != nil {
		return err
	}
	t.cache.Invalidate(ApplicationsKey())
	t.cache.Invalidate(ApplicationKey(id))
	t.cache.Invalidate(NotesKey(id))
	return nil
}

// CreateNote validates and adds a note
func (t *Tracker) CreateNote(ctx context.Context, applicationID int64, content string) (*Note, error) {
	req := NoteRequest{Content: strings.TrimSpace(content)}
	if err := Validate(req); err != nil {
		return nil, err
	}
	note, err := t.backend.CreateNote(ctx, applicationID, req)
	if err != nil {
		return nil, err
	}
	t.cache.Invalidate(NotesKey(applicationID))
	return note, nil
}

// UpdateNote validates and replaces a note's content
func (t *Tracker) UpdateNote(ctx context.Context, applicationID, noteID int64, content string) (*Note, error) {
	req := NoteRequest{Content: strings.TrimSpace(content)}
	if err := Validate(req); err != nil {
		return nil, err
	}
	note, err := t.backend.UpdateNote(ctx, applicationID, noteID, req)
	if err != nil {
		return nil, err
	}
	t.cache.Invalidate(NotesKey(applicationID))
	return note, nil
}

// DeleteNote deletes a note
func (t *Tracker) DeleteNote(ctx context.Context, applicationID, noteID int64) error {
	if err := t.backend.DeleteNote(ctx, applicationID, noteID); err != nil {
		return err
	}
	t.cache.Invalidate(NotesKey(applicationID))
	return nil
}

// SortNotes orders notes newest first, breaking ties by id
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		ti, tj := notes[i].GetCreatedAt(), notes[j].GetCreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return notes[i].ID > notes[j].ID
	})
}
