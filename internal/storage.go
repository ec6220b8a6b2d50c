package internal

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Storage keys, one partition of the substrate per tool.
const (
	PDFHistoryKey  = "pdf-chat-history"
	RepoHistoryKey = "github-chat-history"
)

// RetentionPolicy bounds history growth. Zero values mean unbounded.
type RetentionPolicy struct {
	MaxSessions int
	MaxAge      time.Duration
}

// SessionStore is the persistent collection of one tool's chat sessions.
// The whole collection is re-serialized under the storage key after every mutation.
type SessionStore struct {
	mu        sync.Mutex
	kv        KVStore
	key       string
	active    *ActiveSession
	sessions  []ChatSession
	retention RetentionPolicy
	now       func() time.Time
}

// StoreOption configures a SessionStore
type StoreOption func(*SessionStore)

// WithRetention sets the eviction policy applied on save
func WithRetention(p RetentionPolicy) StoreOption {
	return func(s *SessionStore) { s.retention = p }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a store for storageKey and loads whatever is persisted there.
// active may be shared with a controller; nil allocates a private reference.
func NewSessionStore(kv KVStore, storageKey string, active *ActiveSession, opts ...StoreOption) *SessionStore {
	if active == nil {
		active = NewActiveSession()
	}
	s := &SessionStore{
		kv:     kv,
		key:    storageKey,
		active: active,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load()
	return s
}

// Load replaces the in-memory collection with the persisted one.
// Missing or undecodable data leaves the store empty; the problem is only logged.
func (s *SessionStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil

	raw, ok, err := s.kv.GetItem(s.key)
	if err != nil {
		LogError("Error loading chat history: %v", err)
		return
	}
	if !ok || raw == "" {
		return
	}

	var sessions []ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		LogError("Error loading chat history: %v", &ParseError{Source: "storage", Key: s.key, Err: err})
		return
	}
	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []ChatMessage{}
		}
	}
	s.sessions = sessions
	LogDebug("Loaded %d session(s) from %s", len(sessions), s.key)
}

// SaveChat replaces the session with id in place, or appends it if unseen.
// The saved copy gets a fresh timestamp and becomes the active session.
func (s *SessionStore) SaveChat(id, title string, messages []ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := ChatSession{
		ID:        id,
		Title:     title,
		Timestamp: s.now(),
		Messages:  append([]ChatMessage{}, messages...),
	}

	if i := s.indexOf(id); i >= 0 {
		s.sessions[i] = session
	} else {
		s.sessions = append(s.sessions, session)
	}
	s.active.Set(id)
	s.evict()

	return s.persist()
}

// DeleteChat removes the session with id and clears the active reference if it pointed there.
func (s *SessionStore) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	if s.active.Is(id) {
		s.active.Clear()
	}

	if len(s.sessions) == 0 {
		// the collection was non-empty a moment ago, so the persisted copy is stale
		return s.kv.RemoveItem(s.key)
	}
	return s.persist()
}

// Prune applies the retention policy outside of a save and returns how many
// sessions were removed.
func (s *SessionStore) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.sessions)
	s.evict()
	removed := before - len(s.sessions)
	if removed == 0 {
		return 0, nil
	}
	if len(s.sessions) == 0 {
		return removed, s.kv.RemoveItem(s.key)
	}
	return removed, s.persist()
}

// GetChat returns a copy of the session with id.
func (s *SessionStore) GetChat(id string) (ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return ChatSession{}, false
}

// Sessions returns a copy of the collection in storage order.
func (s *SessionStore) Sessions() []ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSession, len(s.sessions))
	for i, session := range s.sessions {
		out[i] = session.Clone()
	}
	return out
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Active returns the shared active-session reference.
func (s *SessionStore) Active() *ActiveSession {
	return s.active
}

// StorageKey returns the partition this store writes to.
func (s *SessionStore) StorageKey() string {
	return s.key
}

func (s *SessionStore) indexOf(id string) int {
	for i, session := range s.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection back. An empty collection is never written.
func (s *SessionStore) persist() error {
	if len(s.sessions) == 0 {
		return nil
	}
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return &ParseError{Source: "storage", Key: s.key, Err: err}
	}
	return s.kv.SetItem(s.key, string(data))
}

// evict applies the retention policy. The active session is never evicted.
func (s *SessionStore) evict() {
	if s.retention.MaxAge > 0 {
		cutoff := s.now().Add(-s.retention.MaxAge)
		kept := s.sessions[:0]
		for _, session := range s.sessions {
			if session.Timestamp.Before(cutoff) && !s.active.Is(session.ID) {
				LogDebug("Evicting session %s from %s: older than %s", session.ID, s.key, s.retention.MaxAge)
				continue
			}
			kept = append(kept, session)
		}
		s.sessions = kept
	}

	excess := len(s.sessions) - s.retention.MaxSessions
	if s.retention.MaxSessions <= 0 || excess <= 0 {
		return
	}

	// oldest timestamps go first
	order := make([]int, len(s.sessions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.sessions[order[a]].Timestamp.Before(s.sessions[order[b]].Timestamp)
	})

	drop := make(map[int]bool, excess)
	for _, i := range order {
		if len(drop) == excess {
			break
		}
		if s.active.Is(s.sessions[i].ID) {
			continue
		}
		drop[i] = true
	}

	kept := make([]ChatSession, 0, len(s.sessions)-len(drop))
	for i, session := range s.sessions {
		if drop[i] {
			LogDebug("Evicting session %s from %s: over %d sessions", session.ID, s.key, s.retention.MaxSessions)
			continue
		}
		kept = append(kept, session)
	}
	s.sessions = kept
}
