package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when an exchange is submitted while another is in flight.
	ErrBusy = errors.New("an exchange is already in progress")
	// ErrNotReady is returned when the tool setup step has not completed yet.
	ErrNotReady = errors.New("session is not ready: setup has not completed")
	// ErrSessionNotFound is returned when a session id is not in the store.
	ErrSessionNotFound = errors.New("session not found")
)

// StorageError represents errors accessing the key/value substrate
type StorageError struct {
	Key string
	Op  string // "open", "get", "set", "remove", "delete", "prune"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted or remote data
type ParseError struct {
	Source string // "storage" or a tool name
	Key    string // storage key or endpoint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx answer from a remote service.
// Detail carries the server's "detail" field when it sent one.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("remote error [%d] %s: %s", e.StatusCode, e.Endpoint, e.Detail)
	}
	return fmt.Sprintf("remote error [%d] %s", e.StatusCode, e.Endpoint)
}

// ValidationError is input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
