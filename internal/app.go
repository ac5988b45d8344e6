package internal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// App is the client context: one token store, HTTP client, session manager,
// cache and tracker per process, constructed together and passed to whatever
// needs them.
type App struct {
	Config  Config
	Store   TokenStore
	HTTP    *HTTPClient
	API     *API
	Session *SessionManager
	Cache   *QueryCache
	Tracker *Tracker

	db *sqlx.DB
}

// AppOption configures NewApp
type AppOption func(*appOptions)

type appOptions struct {
	store       TokenStore
	httpOptions []HTTPClientOption
	sessionOpts []SessionOption
}

// WithTokenStore uses store instead of the configured one
func WithTokenStore(store TokenStore) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// WithHTTPOptions passes extra options to the HTTP client
func WithHTTPOptions(opts ...HTTPClientOption) AppOption {
	return func(o *appOptions) {
		o.httpOptions = append(o.httpOptions, opts...)
	}
}

// WithSessionOptions passes extra options to the session manager
func WithSessionOptions(opts ...SessionOption) AppOption {
	return func(o *appOptions) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// NewApp wires the client together and restores any persisted session
func NewApp(cfg Config, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg}

	switch {
	case o.store != nil:
		app.Store = o.store
	case cfg.Ephemeral:
		app.Store = NewMemoryTokenStore()
	default:
		path := cfg.DatabasePath()
		db, err := OpenDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		app.db = db
		app.Store = NewSQLiteTokenStore(db, path)
	}

	httpOpts := append([]HTTPClientOption{WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)}, o.httpOptions...)
	app.HTTP = NewHTTPClient(cfg.APIURL, cfg.Timeout, httpOpts...)
	app.API = NewAPI(app.HTTP)
	app.Session = NewSessionManager(app.Store, app.HTTP, o.sessionOpts...)
	app.HTTP.SetUnauthorizedHandler(app.Session.HandleUnauthorized)
	app.Cache = NewQueryCache()
	app.Tracker = NewTracker(app.API, app.Cache)

	state := app.Session.Restore()
	LogDebug("Session state after restore: %s", state)
	return app, nil
}

// Register creates an account and logs straight into it
func (a *App) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	resp, err := a.API.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.Session.Login(*resp); err != nil {
		return nil, err
	}
	user := resp.User()
	return &user, nil
}

// Login authenticates and establishes the session
func (a *App) Login(ctx context.Context, req LoginRequest) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	resp, err := a.API.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.Session.Login(*resp); err != nil {
		return nil, err
	}
	user := resp.User()
	return &user, nil
}

// Logout ends the session. Cached server state is left in place.
func (a *App) Logout() {
	a.Session.Logout()
}

// RequireSession returns ErrNotAuthenticated unless a live session is held
func (a *App) RequireSession() (Session, error) {
	session, ok := a.Session.Current()
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	return session, nil
}

// Close releases the credential database
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
