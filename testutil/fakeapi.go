package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// FakeApplication mirrors the backend's application representation
type FakeApplication struct {
	ID                int64  `json:"id"`
	CompanyName       string `json:"companyName"`
	PositionTitle     string `json:"positionTitle"`
	Location          string `json:"location,omitempty"`
	WorkMode          string `json:"workMode,omitempty"`
	ApplicationSource string `json:"applicationSource,omitempty"`
	JobPostingURL     string `json:"jobPostingUrl,omitempty"`
	SalaryMin         *int   `json:"salaryMin,omitempty"`
	SalaryMax         *int   `json:"salaryMax,omitempty"`
	Status            string `json:"status"`
	ApplicationDate   string `json:"applicationDate"`
	NextStepDate      string `json:"nextStepDate,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`

	owner string
}

// FakeNote mirrors the backend's note representation
type FakeNote struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"applicationId"`
	Content       string `json:"content"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type fakeUser struct {
	ID       int64
	FullName string
	Email    string
	Password string
}

// RecordedRequest is one request seen by the fake backend
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

// FakeBackend is an in-process implementation of the job tracker REST API
// served under /api.
type FakeBackend struct {
	Server *httptest.Server

	t        *testing.T
	tokenTTL time.Duration

	mu       sync.Mutex
	nextID   int64
	clock    time.Time
	users    map[string]*fakeUser
	tokens   map[string]string
	apps     map[int64]*FakeApplication
	notes    map[int64]*FakeNote
	requests []RecordedRequest
	failures map[string]int
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		t:        t,
		tokenTTL: time.Hour,
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users:    make(map[string]*fakeUser),
		tokens:   make(map[string]string),
		apps:     make(map[int64]*FakeApplication),
		notes:    make(map[int64]*FakeNote),
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", f.register)
		r.Post("/auth/login", f.login)

		r.Group(func(r chi.Router) {
			r.Use(f.authenticate)
			r.Get("/applications", f.listApplications)
			r.Post("/applications", f.createApplication)
			r.Get("/applications/{id}", f.getApplication)
			r.Put("/applications/{id}", f.updateApplication)
			r.Delete("/applications/{id}", f.deleteApplication)
			r.Get("/applications/{id}/notes", f.listNotes)
			r.Post("/applications/{id}/notes", f.createNote)
			r.Put("/applications/{id}/notes/{noteId}", f.updateNote)
			r.Delete("/applications/{id}/notes/{noteId}", f.deleteNote)
		})
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base URL (ending in /api)
func (f *FakeBackend) URL() string {
	return f.Server.URL + "/api"
}

// AddUser registers an account directly
func (f *FakeBackend) AddUser(fullName, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.users[email] = &fakeUser{ID: f.nextID, FullName: fullName, Email: email, Password: password}
}

// IssueToken mints a token for email that the backend accepts
func (f *FakeBackend) IssueToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(email)
}

func (f *FakeBackend) issueLocked(email string) string {
	token := MintToken(f.t, email, time.Now().Add(f.tokenTTL))
	f.tokens[token] = email
	return token
}

// RevokeAll invalidates every issued token server side
func (f *FakeBackend) RevokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// FailNext makes the next n requests matching method and path (relative to /api)
// fail with a 500
func (f *FakeBackend) FailNext(method, path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] += n
}

// Calls counts requests matching method and path (relative to /api)
func (f *FakeBackend) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, req := range f.requests {
		if req.Method == method && req.Path == path {
			count++
		}
	}
	return count
}

// Requests returns every recorded request
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// LastRequest returns the most recent request matching method and path
func (f *FakeBackend) LastRequest(method, path string) (RecordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method && f.requests[i].Path == path {
			return f.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// Application returns the stored application with id
func (f *FakeBackend) Application(id int64) (FakeApplication, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return FakeApplication{}, false
	}
	return *app, true
}

// NoteCount returns how many notes belong to applicationID
func (f *FakeBackend) NoteCount(applicationID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notes {
		if n.ApplicationID == applicationID {
			count++
		}
	}
	return count
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          path,
			Authorization: r.Header.Get("Authorization"),
		})
		key := r.Method + " " + path
		fail := f.failures[key] > 0
		if fail {
			f.failures[key]--
		}
		f.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ownerKey struct{}

func (f *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		f.mu.Lock()
		email, ok := f.tokens[token]
		f.mu.Unlock()

		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"status": 401,
				"error":  "Unauthorized",
				"path":   r.URL.Path,
			})
			return
		}
		r.Header.Set("X-Fake-Owner", email)
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body is missing or malformed"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[body.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Email already registered"})
		return
	}
	f.nextID++
	user := &fakeUser{ID: f.nextID, FullName: body.FullName, Email: body.Email, Password: body.Password}
	f.users[body.Email] = user
	writeJSON(w, http.StatusCreated, authPayload(user, f.issueLocked(user.Email)))
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body is missing or malformed"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[body.Email]
	if !ok || user.Password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, authPayload(user, f.issueLocked(user.Email)))
}

func authPayload(user *fakeUser, token string) map[string]interface{} {
	return map[string]interface{}{
		"token":    token,
		"id":       user.ID,
		"fullName": user.FullName,
		"email":    user.Email,
	}
}

func (f *FakeBackend) listApplications(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Fake-Owner")

	f.mu.Lock()
	apps := make([]FakeApplication, 0, len(f.apps))
	for _, app := range f.apps {
		if app.owner == owner {
			apps = append(apps, *app)
		}
	}
	f.mu.Unlock()

	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	writeJSON(w, http.StatusOK, apps)
}

func (f *FakeBackend) getApplication(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	app, ok := f.ownedApplication(r)
	var out FakeApplication
	if ok {
		out = *app
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Application")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) createApplication(w http.ResponseWriter, r *http.Request) {
	var app FakeApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body is missing or malformed"})
		return
	}
	if fields := validateApplication(app); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	f.mu.Lock()
	f.nextID++
	now := f.tickLocked()
	app.ID = f.nextID
	app.CreatedAt = now
	app.UpdatedAt = now
	app.owner = r.Header.Get("X-Fake-Owner")
	f.apps[app.ID] = &app
	out := app
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (f *FakeBackend) updateApplication(w http.ResponseWriter, r *http.Request) {
	var update FakeApplication
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body is missing or malformed"})
		return
	}
	if fields := validateApplication(update); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	f.mu.Lock()
	app, ok := f.ownedApplication(r)
	var out FakeApplication
	if ok {
		update.ID = app.ID
		update.CreatedAt = app.CreatedAt
		update.UpdatedAt = f.tickLocked()
		update.owner = app.owner
		*app = update
		out = *app
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Application")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) deleteApplication(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	app, ok := f.ownedApplication(r)
	if ok {
		delete(f.apps, app.ID)
		for id, n := range f.notes {
			if n.ApplicationID == app.ID {
				delete(f.notes, id)
			}
		}
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Application")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeBackend) listNotes(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	app, ok := f.ownedApplication(r)
	var notes []FakeNote
	if ok {
		for _, n := range f.notes {
			if n.ApplicationID == app.ID {
				notes = append(notes, *n)
			}
		}
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Application")
		return
	}
	// oldest first; the client is responsible for display order
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	if notes == nil {
		notes = []FakeNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (f *FakeBackend) createNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"content": "Content is required"})
		return
	}

	f.mu.Lock()
	app, ok := f.ownedApplication(r)
	var out FakeNote
	if ok {
		f.nextID++
		now := f.tickLocked()
		note := &FakeNote{ID: f.nextID, ApplicationID: app.ID, Content: body.Content, CreatedAt: now, UpdatedAt: now}
		f.notes[note.ID] = note
		out = *note
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Application")
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (f *FakeBackend) updateNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"content": "Content is required"})
		return
	}

	f.mu.Lock()
	note, ok := f.ownedNote(r)
	var out FakeNote
	if ok {
		note.Content = body.Content
		note.UpdatedAt = f.tickLocked()
		out = *note
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Note")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) deleteNote(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	note, ok := f.ownedNote(r)
	if ok {
		delete(f.notes, note.ID)
	}
	f.mu.Unlock()

	if !ok {
		writeNotFound(w, "Note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedApplication resolves {id} for the request owner; callers hold f.mu
func (f *FakeBackend) ownedApplication(r *http.Request) (*FakeApplication, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, false
	}
	app, ok := f.apps[id]
	if !ok || app.owner != r.Header.Get("X-Fake-Owner") {
		return nil, false
	}
	return app, true
}

// ownedNote resolves {id}/{noteId}; callers hold f.mu
func (f *FakeBackend) ownedNote(r *http.Request) (*FakeNote, bool) {
	app, ok := f.ownedApplication(r)
	if !ok {
		return nil, false
	}
	noteID, err := strconv.ParseInt(chi.URLParam(r, "noteId"), 10, 64)
	if err != nil {
		return nil, false
	}
	note, ok := f.notes[noteID]
	if !ok || note.ApplicationID != app.ID {
		return nil, false
	}
	return note, true
}

// tickLocked advances the fake clock by a minute so timestamps are strictly increasing
func (f *FakeBackend) tickLocked() string {
	f.clock = f.clock.Add(time.Minute)
	return f.clock.Format("2006-01-02T15:04:05")
}

func validateApplication(app FakeApplication) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(app.CompanyName) == "" {
		fields["companyName"] = "Company name is required"
	}
	if strings.TrimSpace(app.PositionTitle) == "" {
		fields["positionTitle"] = "Position title is required"
	}
	if app.Status == "" {
		fields["status"] = "Status is required"
	}
	if app.ApplicationDate == "" {
		fields["applicationDate"] = "Application date is required"
	}
	return fields
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("%s not found", what)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
