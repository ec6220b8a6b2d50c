package internal

import "sync"

// ActiveSession is the reference to the session a tool is currently showing.
// It does not own the session; the store and the controller share one value.
type ActiveSession struct {
	mu sync.RWMutex
	id string
}

// NewActiveSession returns an empty reference.
func NewActiveSession() *ActiveSession {
	return &ActiveSession{}
}

// ID returns the active id and whether one is set.
func (a *ActiveSession) ID() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.id, a.id != ""
}

// Is reports whether id is the active session.
func (a *ActiveSession) Is(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return id != "" && a.id == id
}

// Set points the reference at id.
func (a *ActiveSession) Set(id string) {
	a.mu.Lock()
	a.id = id
	a.mu.Unlock()
}

// Clear drops the reference.
func (a *ActiveSession) Clear() {
	a.Set("")
}
