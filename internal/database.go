package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// KVStore is the durable key/value substrate the session stores write to.
// Values are whole serialized documents; writes are last-writer-wins.
type KVStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Items(pattern string) ([]KeyValuePair, error)
}

// KeyValuePair represents a key-value pair from the kv table
type KeyValuePair struct {
	Key   string
	Value string
}

// OpenDatabase opens (creating if needed) the SQLite file backing the substrate
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Key: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// each pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return db, nil
}

// SQLiteKV implements KVStore over the kv table
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV wraps an opened database
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// GetItem returns the value stored under key
func (s *SQLiteKV) GetItem(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// SetItem replaces the value stored under key
func (s *SQLiteKV) SetItem(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// RemoveItem deletes key; removing a missing key is not an error
func (s *SQLiteKV) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// Items queries the kv table with a LIKE pattern
func (s *SQLiteKV) Items(pattern string) ([]KeyValuePair, error) {
	rows, err := s.db.Query("SELECT key, value FROM kv WHERE key LIKE ? AND value IS NOT NULL ORDER BY key", pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		if err := rows.Scan(&pair.Key, &pair.Value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// MemoryKV is a process-local KVStore, used when history should not outlive the run.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

func (m *MemoryKV) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) SetItem(key, value string) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) RemoveItem(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Items supports only the "%" wildcard suffix form used by callers ("prefix%").
func (m *MemoryKV) Items(pattern string) ([]KeyValuePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := pattern
	exact := true
	if n := len(pattern); n > 0 && pattern[n-1] == '%' {
		prefix = pattern[:n-1]
		exact = false
	}

	var pairs []KeyValuePair
	for k, v := range m.items {
		if (exact && k == prefix) || (!exact && strings.HasPrefix(k, prefix)) {
			pairs = append(pairs, KeyValuePair{Key: k, Value: v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}
