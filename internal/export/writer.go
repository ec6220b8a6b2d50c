package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/iksnae/careertrack/internal"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the export file name of a session.
func FileName(session *internal.ChatSession, ext string) string {
	return fmt.Sprintf("session_%s.%s", unsafeFileChars.ReplaceAllString(session.ID, "_"), ext)
}

// WriteAll exports every session into dir, one file each, and writes the
// sessions.yaml index beside them. A session that fails to export is logged
// and left out of the index; the first such failure is returned after the
// remaining sessions have been written. Entries of an earlier index for the
// same storage key are carried over when their files are still present.
func WriteAll(dir string, exporter Exporter, storageKey string, sessions []internal.ChatSession, now time.Time) (*internal.SessionIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &internal.ExportError{Format: exporter.Extension(), Path: dir, Err: err}
	}

	idx := internal.NewSessionIndex(storageKey, now)
	var firstErr error
	for i := range sessions {
		session := &sessions[i]
		name := FileName(session, exporter.Extension())
		if err := writeOne(filepath.Join(dir, name), exporter, session); err != nil {
			internal.LogError("Failed to export session %s: %v", session.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		idx.Add(*session, name)
	}
	keepPrevious(dir, idx)

	if err := internal.SaveIndex(dir, idx); err != nil {
		return idx, err
	}
	return idx, firstErr
}

func keepPrevious(dir string, idx *internal.SessionIndex) {
	prev, err := internal.LoadIndex(dir)
	if err != nil || prev.Metadata.StorageKey != idx.Metadata.StorageKey {
		return
	}
	seen := make(map[string]bool, len(idx.Sessions))
	for _, e := range idx.Sessions {
		seen[e.ID] = true
	}
	for _, e := range prev.Sessions {
		if seen[e.ID] || e.File == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.File)); err != nil {
			continue
		}
		idx.Sessions = append(idx.Sessions, e)
	}
}

func writeOne(path string, exporter Exporter, session *internal.ChatSession) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}
