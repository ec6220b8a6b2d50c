package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// IndexVersion is written into every index so readers can detect older layouts.
const IndexVersion = "1.0"

// IndexMetadata describes where an exported index came from
type IndexMetadata struct {
	StorageKey   string    `yaml:"storage_key"`
	IndexVersion string    `yaml:"index_version"`
	ExportedAt   time.Time `yaml:"exported_at"`
}

// SessionIndexEntry represents a session entry in the index
type SessionIndexEntry struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title,omitempty"`
	UpdatedAt    time.Time `yaml:"updated_at"`
	MessageCount int       `yaml:"message_count"`
	File         string    `yaml:"file,omitempty"`
}

// SessionIndex represents the YAML index written next to exported sessions
type SessionIndex struct {
	Sessions []SessionIndexEntry `yaml:"sessions"`
	Metadata IndexMetadata       `yaml:"metadata"`
}

// NewSessionIndex starts an empty index for storageKey
func NewSessionIndex(storageKey string, now time.Time) *SessionIndex {
	return &SessionIndex{
		Sessions: make([]SessionIndexEntry, 0),
		Metadata: IndexMetadata{
			StorageKey:   storageKey,
			IndexVersion: IndexVersion,
			ExportedAt:   now,
		},
	}
}

// Add records an exported session; file is relative to the index directory.
func (idx *SessionIndex) Add(session ChatSession, file string) {
	idx.Sessions = append(idx.Sessions, SessionIndexEntry{
		ID:           session.ID,
		Title:        session.Title,
		UpdatedAt:    session.Timestamp,
		MessageCount: len(session.Messages),
		File:         file,
	})
}

// IndexPath returns the path to the session index YAML file in dir
func IndexPath(dir string) string {
	return filepath.Join(dir, "sessions.yaml")
}

// SaveIndex writes the index into dir
func SaveIndex(dir string, idx *SessionIndex) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	return os.WriteFile(IndexPath(dir), data, 0644)
}

// LoadIndex reads the index from dir
func LoadIndex(dir string) (*SessionIndex, error) {
	data, err := os.ReadFile(IndexPath(dir))
	if err != nil {
		return nil, err
	}

	var idx SessionIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}

	return &idx, nil
}
