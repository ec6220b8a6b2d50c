package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateSQLiteFixture creates a SQLite database file holding the sample histories
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(kvTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertItem(t, db, "pdf-chat-history", SamplePDFHistory)
	InsertItem(t, db, "github-chat-history", SampleRepoHistory)
}

// CreatePDFFixture writes a minimal file that content-sniffs as a PDF
func CreatePDFFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write PDF fixture: %v", err)
	}
	return path
}

// CreateConfigFixture writes a config file pointing every endpoint at baseURL
// and the substrate at dbPath, and returns its path
func CreateConfigFixture(t *testing.T, dir, baseURL, dbPath string) string {
	t.Helper()
	content := "endpoints:\n" +
		"  pdf: " + baseURL + "\n" +
		"  repo: " + baseURL + "\n" +
		"  resume: " + baseURL + "\n" +
		"  quiz: " + baseURL + "\n" +
		"  assistant: " + baseURL + "\n" +
		"storage:\n" +
		"  db_path: " + dbPath + "\n" +
		"logging:\n" +
		"  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}
