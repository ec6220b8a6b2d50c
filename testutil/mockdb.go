package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const kvTableSQL = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`

// SamplePDFHistory is a stored PDF history with two sessions, the second
// written by an older release that used the isUser form.
const SamplePDFHistory = `[
  {"id":"pdf-1","title":"attention.pdf","timestamp":"2024-03-01T10:00:00Z","messages":[
    {"content":"PDF processed successfully! I'm ready to answer questions about this research paper. What would you like to know?","role":"assistant","timestamp":"2024-03-01T09:59:00Z"},
    {"content":"What is the main contribution?","role":"user","timestamp":"2024-03-01T09:59:30Z"},
    {"content":"The paper proposes X.","role":"assistant","timestamp":"2024-03-01T10:00:00Z"}
  ]},
  {"id":"pdf-2","title":"resnet.pdf","timestamp":"2024-03-02T08:00:00Z","messages":[
    {"content":"Summarize section 3","isUser":true,"timestamp":"2024-03-02T08:00:00Z"}
  ]}
]`

// SampleRepoHistory is a stored repository history with one session.
const SampleRepoHistory = `[
  {"id":"repo-1","title":"acme/widgets","timestamp":"2024-03-03T12:00:00Z","messages":[
    {"content":"Repository https://github.com/acme/widgets has been analyzed. You can now ask questions about the code, structure, or functionality.","role":"assistant","timestamp":"2024-03-03T12:00:00Z"}
  ]}
]`

// CreateInMemoryDB creates an in-memory SQLite database with an empty kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every pooled connection would get its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(kvTableSQL); err != nil {
		t.Fatalf("Failed to create kv table: %v", err)
	}

	return db
}

// CreateTestDB creates a test database holding the sample PDF and repository histories
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertItem(t, db, "pdf-chat-history", SamplePDFHistory)
	InsertItem(t, db, "github-chat-history", SampleRepoHistory)
	return db
}

// InsertItem stores value under key, replacing any previous value
func InsertItem(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}
