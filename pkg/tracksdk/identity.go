// Package tracksdk is the instrumentation client embedded in the site's
// server-rendered pages and server-side integrations. It manages visitor
// and session identity, accumulates engagement locally, and ships data
// to the collector without ever blocking or failing the caller's page.
package tracksdk

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Storage keys for the two identity scopes. The visitor key lives in
// durable storage, the session key in per-tab storage.
const (
	VisitorIDKey = "li_visitor_id"
	SessionIDKey = "li_session_id"
)

// ErrStorageUnavailable is returned by Storage implementations when the
// backing store cannot be used (private browsing, quota, disabled cookies).
var ErrStorageUnavailable = errors.New("tracksdk: storage unavailable")

// Storage persists identity between page loads. Implementations must be
// safe for concurrent use.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// GetOrCreateVisitorID returns the durable visitor identity, minting a
// new one on first visit. When storage cannot be used the error is
// ErrStorageUnavailable and the caller must skip instrumentation for
// this page view; an identity that cannot be persisted would count the
// same person as a new visitor on every page load.
func GetOrCreateVisitorID(storage Storage) (string, error) {
	return getOrCreateID(storage, VisitorIDKey)
}

// GetOrCreateSessionID returns the per-session identity, minting a new
// one when the session store is empty.
func GetOrCreateSessionID(storage Storage) (string, error) {
	return getOrCreateID(storage, SessionIDKey)
}

func getOrCreateID(storage Storage, key string) (string, error) {
	if storage == nil {
		return "", ErrStorageUnavailable
	}

	existing, err := storage.Get(key)
	if err != nil {
		return "", ErrStorageUnavailable
	}
	if existing != "" {
		return existing, nil
	}

	id := uuid.NewString()
	if err := storage.Set(key, id); err != nil {
		return "", ErrStorageUnavailable
	}
	return id, nil
}

// MemoryStorage is an in-process Storage, used by server-side callers
// and tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// ClearSession drops the session identity so the next page view starts
// a new session.
func (m *MemoryStorage) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, SessionIDKey)
}
