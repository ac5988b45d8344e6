package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBackend is an in-process Backend that counts calls per method
type memoryBackend struct {
	mu     sync.Mutex
	apps   map[int64]Application
	notes  map[int64][]Note
	nextID int64
	calls  map[string]int
	fail   map[string]error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		apps:  make(map[int64]Application),
		notes: make(map[int64][]Note),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (b *memoryBackend) record(method string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[method]++
	return b.fail[method]
}

func (b *memoryBackend) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *memoryBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func notFound(path string) error {
	return &APIError{Method: http.MethodGet, Path: path, StatusCode: http.StatusNotFound, Message: "Not found"}
}

func (b *memoryBackend) ListApplications(ctx context.Context) ([]Application, error) {
	if err := b.record("ListApplications"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	apps := make([]Application, 0, len(b.apps))
	for id := int64(1); id <= b.nextID; id++ {
		if app, ok := b.apps[id]; ok {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func (b *memoryBackend) GetApplication(ctx context.Context, id int64) (*Application, error) {
	if err := b.record("GetApplication"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	app, ok := b.apps[id]
	if !ok {
		return nil, notFound(applicationPath(id))
	}
	return &app, nil
}

func (b *memoryBackend) CreateApplication(ctx context.Context, req ApplicationRequest) (*Application, error) {
	if err := b.record("CreateApplication"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	app := applicationFromRequest(b.nextID, req)
	b.apps[app.ID] = app
	return &app, nil
}

func (b *memoryBackend) UpdateApplication(ctx context.Context, id int64, req ApplicationRequest) (*Application, error) {
	if err := b.record("UpdateApplication"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.apps[id]; !ok {
		return nil, notFound(applicationPath(id))
	}
	app := applicationFromRequest(id, req)
	b.apps[id] = app
	return &app, nil
}

func (b *memoryBackend) DeleteApplication(ctx context.Context, id int64) error {
	if err := b.record("DeleteApplication"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.apps[id]; !ok {
		return notFound(applicationPath(id))
	}
	delete(b.apps, id)
	delete(b.notes, id)
	return nil
}

func (b *memoryBackend) ListNotes(ctx context.Context, applicationID int64) ([]Note, error) {
	if err := b.record("ListNotes"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Note(nil), b.notes[applicationID]...), nil
}

func (b *memoryBackend) CreateNote(ctx context.Context, applicationID int64, req NoteRequest) (*Note, error) {
	if err := b.record("CreateNote"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	note := Note{
		ID:            b.nextID,
		ApplicationID: applicationID,
		Content:       req.Content,
		CreatedAt:     fmt.Sprintf("2024-01-01T10:%02d:00", b.nextID%60),
	}
	b.notes[applicationID] = append(b.notes[applicationID], note)
	return &note, nil
}

func (b *memoryBackend) UpdateNote(ctx context.Context, applicationID, noteID int64, req NoteRequest) (*Note, error) {
	if err := b.record("UpdateNote"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notes[applicationID] {
		if n.ID == noteID {
			b.notes[applicationID][i].Content = req.Content
			updated := b.notes[applicationID][i]
			return &updated, nil
		}
	}
	return nil, notFound(notePath(applicationID, noteID))
}

func (b *memoryBackend) DeleteNote(ctx context.Context, applicationID, noteID int64) error {
	if err := b.record("DeleteNote"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	notes := b.notes[applicationID]
	for i, n := range notes {
		if n.ID == noteID {
			b.notes[applicationID] = append(notes[:i], notes[i+1:]...)
			return nil
		}
	}
	return notFound(notePath(applicationID, noteID))
}

func applicationFromRequest(id int64, req ApplicationRequest) Application {
	return Application{
		ID:                id,
		CompanyName:       req.CompanyName,
		PositionTitle:     req.PositionTitle,
		Location:          req.Location,
		WorkMode:          req.WorkMode,
		ApplicationSource: req.ApplicationSource,
		JobPostingURL:     req.JobPostingURL,
		SalaryMin:         req.SalaryMin,
		SalaryMax:         req.SalaryMax,
		Status:            req.Status,
		ApplicationDate:   req.ApplicationDate,
		NextStepDate:      req.NextStepDate,
	}
}

func validApplication(company string) ApplicationRequest {
	return ApplicationRequest{
		CompanyName:     company,
		PositionTitle:   "Engineer",
		Status:          StatusApplied,
		ApplicationDate: "2024-01-15",
	}
}

func TestTracker_CreateRefreshesList(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	apps, err := tr.Applications(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)

	created, err := tr.CreateApplication(ctx, validApplication("Acme"))
	require.NoError(t, err)

	apps, err = tr.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
	assert.Equal(t, 2, backend.count("ListApplications"), "list should be refetched once after the create")

	_, err = tr.Applications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("ListApplications"))
}

func TestTracker_InvalidationTable(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(ctx context.Context, tr *Tracker, appID, noteID int64) error
		wantStale []func(appID int64) Key
		wantFresh []func(appID int64) Key
	}{
		{
			name: "update application",
			mutate: func(ctx context.Context, tr *Tracker, appID, _ int64) error {
				req := validApplication("Acme")
				req.Status = StatusInterviewing
				_, err := tr.UpdateApplication(ctx, appID, req)
				return err
			},
			wantStale: []func(int64) Key{func(int64) Key { return ApplicationsKey() }, ApplicationKey},
			wantFresh: []func(int64) Key{NotesKey},
		},
		{
			name: "delete application",
			mutate: func(ctx context.Context, tr *Tracker, appID, _ int64) error {
				return tr.DeleteApplication(ctx, appID)
			},
			wantStale: []func(int64) Key{func(int64) Key { return ApplicationsKey() }, ApplicationKey, NotesKey},
		},
		{
			name: "create note",
			mutate: func(ctx context.Context, tr *Tracker, appID, _ int64) error {
				_, err := tr.CreateNote(ctx, appID, "called back")
				return err
			},
			wantStale: []func(int64) Key{NotesKey},
			wantFresh: []func(int64) Key{func(int64) Key { return ApplicationsKey() }, ApplicationKey},
		},
		{
			name: "update note",
			mutate: func(ctx context.Context, tr *Tracker, appID, noteID int64) error {
				_, err := tr.UpdateNote(ctx, appID, noteID, "edited")
				return err
			},
			wantStale: []func(int64) Key{NotesKey},
			wantFresh: []func(int64) Key{func(int64) Key { return ApplicationsKey() }, ApplicationKey},
		},
		{
			name: "delete note",
			mutate: func(ctx context.Context, tr *Tracker, appID, noteID int64) error {
				return tr.DeleteNote(ctx, appID, noteID)
			},
			wantStale: []func(int64) Key{NotesKey},
			wantFresh: []func(int64) Key{func(int64) Key { return ApplicationsKey() }, ApplicationKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tr := NewTracker(newMemoryBackend(), NewQueryCache())

			app, err := tr.CreateApplication(ctx, validApplication("Acme"))
			require.NoError(t, err)
			note, err := tr.CreateNote(ctx, app.ID, "first")
			require.NoError(t, err)

			_, err = tr.Applications(ctx)
			require.NoError(t, err)
			_, err = tr.Application(ctx, app.ID)
			require.NoError(t, err)
			_, err = tr.Notes(ctx, app.ID)
			require.NoError(t, err)

			require.NoError(t, tt.mutate(ctx, tr, app.ID, note.ID))

			for _, k := range tt.wantStale {
				e, ok := tr.cache.Get(k(app.ID))
				require.True(t, ok)
				assert.Equal(t, CacheStatusStale, e.Status, "%s", k(app.ID))
			}
			for _, k := range tt.wantFresh {
				e, ok := tr.cache.Get(k(app.ID))
				require.True(t, ok)
				assert.Equal(t, CacheStatusFresh, e.Status, "%s", k(app.ID))
			}
		})
	}
}

func TestTracker_FailedMutationLeavesCache(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	app, err := tr.CreateApplication(ctx, validApplication("Acme"))
	require.NoError(t, err)
	_, err = tr.Applications(ctx)
	require.NoError(t, err)
	_, err = tr.Notes(ctx, app.ID)
	require.NoError(t, err)

	backend.fail["UpdateApplication"] = &APIError{Method: http.MethodPut, Path: applicationPath(app.ID), StatusCode: http.StatusInternalServerError}
	backend.fail["CreateNote"] = errors.New("connection reset")

	_, err = tr.UpdateApplication(ctx, app.ID, validApplication("Acme 2"))
	require.Error(t, err)
	_, err = tr.CreateNote(ctx, app.ID, "lost")
	require.Error(t, err)

	for _, k := range []Key{ApplicationsKey(), NotesKey(app.ID)} {
		e, _ := tr.cache.Get(k)
		assert.Equal(t, CacheStatusFresh, e.Status, "%s", k)
	}
}

func TestTracker_ValidationSendsNothing(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	blank := validApplication("   ")
	_, err := tr.CreateApplication(ctx, blank)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "companyName")

	_, err = tr.UpdateApplication(ctx, 1, ApplicationRequest{})
	require.True(t, errors.As(err, &verr))

	_, err = tr.CreateNote(ctx, 1, " \n\t ")
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "content")

	_, err = tr.UpdateNote(ctx, 1, 2, "")
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, 0, backend.total())
}

func TestTracker_NotesNewestFirst(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	app, err := tr.CreateApplication(ctx, validApplication("Acme"))
	require.NoError(t, err)
	for _, content := range []string{"one", "two", "three"} {
		_, err := tr.CreateNote(ctx, app.ID, content)
		require.NoError(t, err)
	}

	notes, err := tr.Notes(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"three", "two", "one"}, []string{notes[0].Content, notes[1].Content, notes[2].Content})
}

func TestTracker_NoteFromCachedList(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	app, err := tr.CreateApplication(ctx, validApplication("Acme"))
	require.NoError(t, err)
	created, err := tr.CreateNote(ctx, app.ID, "phone screen")
	require.NoError(t, err)

	note, err := tr.Note(ctx, app.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "phone screen", note.Content)

	_, err = tr.Note(ctx, app.ID, created.ID+100)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, 1, backend.count("ListNotes"), "both lookups share the cached list")

	backend.fail["ListNotes"] = notFound(notesPath(app.ID + 100))
	_, err = tr.Note(ctx, app.ID+100, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestTracker_NoteContentTrimmed(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())

	note, err := tr.CreateNote(context.Background(), 1, "  phone screen booked \n")
	require.NoError(t, err)
	assert.Equal(t, "phone screen booked", note.Content)
}

func TestSortNotes(t *testing.T) {
	notes := []Note{
		{ID: 1, CreatedAt: "2024-01-01T10:00:00"},
		{ID: 3, CreatedAt: "2024-01-02T09:00:00"},
		{ID: 2, CreatedAt: "2024-01-01T10:00:00"},
		{ID: 4, CreatedAt: ""},
	}
	SortNotes(notes)

	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	assert.Equal(t, []int64{3, 2, 1, 4}, ids)
}

func TestTracker_DeleteDropsNotes(t *testing.T) {
	backend := newMemoryBackend()
	tr := NewTracker(backend, NewQueryCache())
	ctx := context.Background()

	app, err := tr.CreateApplication(ctx, validApplication("Acme"))
	require.NoError(t, err)
	_, err = tr.CreateNote(ctx, app.ID, "n")
	require.NoError(t, err)
	notes, err := tr.Notes(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	require.NoError(t, tr.DeleteApplication(ctx, app.ID))

	notes, err = tr.Notes(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = tr.Application(ctx, app.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
