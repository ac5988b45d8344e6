package internal

import (
	"context"
	"fmt"
	"net/http"
)

// Backend is the REST surface the tracker depends on
type Backend interface {
	ListApplications(ctx context.Context) ([]Application, error)
	GetApplication(ctx context.Context, id int64) (*Application, error)
	CreateApplication(ctx context.Context, req ApplicationRequest) (*Application, error)
	UpdateApplication(ctx context.Context, id int64, req ApplicationRequest) (*Application, error)
	DeleteApplication(ctx context.Context, id int64) error

	ListNotes(ctx context.Context, applicationID int64) ([]Note, error)
	CreateNote(ctx context.Context, applicationID int64, req NoteRequest) (*Note, error)
	UpdateNote(ctx context.Context, applicationID, noteID int64, req NoteRequest) (*Note, error)
	DeleteNote(ctx context.Context, applicationID, noteID int64) error
}

// API maps each backend endpoint onto a method
type API struct {
	client *HTTPClient
}

// NewAPI creates an API over an HTTP client
func NewAPI(client *HTTPClient) *API {
	return &API{client: client}
}

// Register creates an account and returns its session payload
func (a *API) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := a.client.Do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a session payload
func (a *API) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := a.client.Do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListApplications returns the current user's applications
func (a *API) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := a.client.Do(ctx, http.MethodGet, "/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// GetApplication fetches one application
func (a *API) GetApplication(ctx context.Context, id int64) (*Application, error) {
	var app Application
	if err := a.client.Do(ctx, http.MethodGet, applicationPath(id), nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateApplication creates an application
func (a *API) CreateApplication(ctx context.Context, req ApplicationRequest) (*Application, error) {
	var app Application
	if err := a.client.Do(ctx, http.MethodPost, "/applications", req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplication replaces an application
func (a *API) UpdateApplication(ctx context.Context, id int64, req ApplicationRequest) (*Application, error) {
	var app Application
	if err := a.client.Do(ctx, http.MethodPut, applicationPath(id), req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApplication deletes an application and, server side, its notes
func (a *API) DeleteApplication(ctx context.Context, id int64) error {
	return a.client.Do(ctx, http.MethodDelete, applicationPath(id), nil, nil)
}

// ListNotes returns the notes of one application
func (a *API) ListNotes(ctx context.Context, applicationID int64) ([]Note, error) {
	var notes []Note
	if err := a.client.Do(ctx, http.MethodGet, notesPath(applicationID), nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote adds a note to an application
func (a *API) CreateNote(ctx context.Context, applicationID int64, req NoteRequest) (*Note, error) {
	var note Note
	if err := a.client.Do(ctx, http.MethodPost, notesPath(applicationID), req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces a note's content
func (a *API) UpdateNote(ctx context.Context, applicationID, noteID int64, req NoteRequest) (*Note, error) {
	var note Note
	if err := a.client.Do(ctx, http.MethodPut, notePath(applicationID, noteID), req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote deletes a note
func (a *API) DeleteNote(ctx context.Context, applicationID, noteID int64) error {
	return a.client.Do(ctx, http.MethodDelete, notePath(applicationID, noteID), nil, nil)
}

func applicationPath(id int64) string {
	return fmt.Sprintf("/applications/%d", id)
}

func notesPath(applicationID int64) string {
	return fmt.Sprintf("/applications/%d/notes", applicationID)
}

func notePath(applicationID, noteID int64) string {
	return fmt.Sprintf("/applications/%d/notes/%d", applicationID, noteID)
}
