package services

import "sync"

// SessionLocks serializes turn handling per session id in single-process
// deployments. Store reads and writes are not atomic, so without this a
// duplicated request could drop an increment or double-assign a topic.
// Entries are reference counted and removed once idle, so the map never
// grows with dead session ids.
type SessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the session's lock is held and returns the release
// function. Different session ids never contend.
func (l *SessionLocks) Lock(id string) func() {
	l.mu.Lock()
	e := l.entries[id]
	if e == nil {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
