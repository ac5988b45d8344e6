package internal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// StoredCredentials is the persisted half of a session
type StoredCredentials struct {
	Token string
	User  User
}

// TokenStore persists the session credential and profile as one unit.
// Get returns nil, nil when nothing (or only half of the pair) is stored.
type TokenStore interface {
	Get() (*StoredCredentials, error)
	Set(token string, user User) error
	Clear() error
}

// SQLiteTokenStore keeps the credential pair in the kv table
type SQLiteTokenStore struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteTokenStore creates a token store over an open database
func NewSQLiteTokenStore(db *sqlx.DB, path string) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db, path: path}
}

// Get returns the stored pair
func (s *SQLiteTokenStore) Get() (*StoredCredentials, error) {
	values, err := QueryKV(s.db, tokenKey, userKey)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	return credentialsFromValues(values), nil
}

// Set writes both keys in one transaction
func (s *SQLiteTokenStore) Set(token string, user User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}

	const upsert = "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)"
	if _, err := tx.Exec(upsert, tokenKey, token); err != nil {
		_ = tx.Rollback()
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	if _, err := tx.Exec(upsert, userKey, string(userJSON)); err != nil {
		_ = tx.Rollback()
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Clear removes both keys
func (s *SQLiteTokenStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key IN (?, ?)", tokenKey, userKey); err != nil {
		return &StorageError{Path: s.path, Op: "clear", Err: err}
	}
	return nil
}

// MemoryTokenStore is a process-local TokenStore
type MemoryTokenStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryTokenStore creates an empty in-memory store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: make(map[string]string)}
}

// Get returns the stored pair
func (s *MemoryTokenStore) Get() (*StoredCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return credentialsFromValues(values), nil
}

// Set stores both keys
func (s *MemoryTokenStore) Set(token string, user User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[tokenKey] = token
	s.values[userKey] = string(userJSON)
	return nil
}

// SetRaw writes a single key, bypassing the pairing. Used to reproduce interrupted writes.
func (s *MemoryTokenStore) SetRaw(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Clear removes both keys
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, tokenKey)
	delete(s.values, userKey)
	return nil
}

// credentialsFromValues treats any half-written or unreadable pair as absent
func credentialsFromValues(values map[string]string) *StoredCredentials {
	token, hasToken := values[tokenKey]
	userJSON, hasUser := values[userKey]

	if !hasToken && !hasUser {
		return nil
	}
	if !hasToken || !hasUser || token == "" {
		LogWarn("Stored credentials are incomplete (token=%v, user=%v), ignoring them", hasToken, hasUser)
		return nil
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		LogWarn("Stored user profile is unreadable: %v", err)
		return nil
	}

	return &StoredCredentials{Token: token, User: user}
}
