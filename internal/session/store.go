package session

import "sync"

// Entry records which provider owns a session and the provider-side handle
type Entry struct {
	Provider string
	Handle   string
}

// Store is the session table abstraction. Injected so the router never
// touches package-level state and tests can swap implementations.
type Store interface {
	Get(sessionID string) (Entry, bool)
	Put(sessionID string, e Entry)
	Remove(sessionID string)
}

// MemoryStore is the in-process implementation. Sessions live for the
// process lifetime only.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get looks up a session
func (s *MemoryStore) Get(sessionID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return e, ok
}

// Put records a session
func (s *MemoryStore) Put(sessionID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = e
}

// Remove drops a session
func (s *MemoryStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

// Len reports the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
