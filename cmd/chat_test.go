package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/iksnae/careertrack/testutil"
)

// paperServer imitates the PDF service. Questions must go to the session the
// upload was made for.
type paperServer struct {
	mu       sync.Mutex
	uploaded string
	asked    []string
	answer   string
	fail     bool
}

func (p *paperServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("upload without file part: %v", err)
		}
		p.mu.Lock()
		p.uploaded = strings.TrimPrefix(r.URL.Path, "/upload/")
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("/ask/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.asked = append(p.asked, strings.TrimPrefix(r.URL.Path, "/ask/")+": "+body.Question)
		fail := p.fail
		p.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "model overloaded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": p.answer})
	})
	return mux
}

func (p *paperServer) snapshot() (string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploaded, append([]string(nil), p.asked...)
}

func TestPDFCommand_UploadAndAsk(t *testing.T) {
	ps := &paperServer{answer: "It introduces the Transformer."}
	srv := httptest.NewServer(ps.handler(t))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	pdf := testutil.CreatePDFFixture(t, e.dir, "paper.pdf")

	stdout, stderr, err := e.run(t, "What is it about?\n/quit\n", "pdf", pdf)
	if err != nil {
		t.Fatalf("pdf error = %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{exchange.PDFGreeting, "It introduces the Transformer."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "PDF Uploaded Successfully") {
		t.Errorf("expected upload notification, stderr: %s", stderr)
	}

	uploaded, asked := ps.snapshot()
	sessions := e.sessions(t, internal.PDFHistoryKey)
	if len(sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.ID != uploaded {
		t.Errorf("stored session %s, upload was for %s", s.ID, uploaded)
	}
	if s.Title != "paper.pdf" {
		t.Errorf("Title = %q, want paper.pdf", s.Title)
	}
	if len(s.Messages) != 3 {
		t.Fatalf("stored %d messages, want 3", len(s.Messages))
	}
	if s.Messages[1].Role != internal.RoleUser || s.Messages[1].Content != "What is it about?" {
		t.Errorf("Messages[1] = %+v", s.Messages[1])
	}
	if len(asked) != 1 || asked[0] != uploaded+": What is it about?" {
		t.Errorf("asked = %v", asked)
	}
}

func TestPDFCommand_TargetFromPrompt(t *testing.T) {
	ps := &paperServer{answer: "Attention."}
	srv := httptest.NewServer(ps.handler(t))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	pdf := testutil.CreatePDFFixture(t, e.dir, "paper.pdf")

	stdout, _, err := e.run(t, pdf+"\nWhat matters?\n", "pdf")
	if err != nil {
		t.Fatalf("pdf error = %v", err)
	}
	if !strings.Contains(stdout, "Enter a PDF file path") {
		t.Errorf("expected a prompt for the file:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Attention.") {
		t.Errorf("expected the answer:\n%s", stdout)
	}
	if n := len(e.sessions(t, internal.PDFHistoryKey)); n != 1 {
		t.Errorf("stored %d sessions, want 1", n)
	}
}

func TestPDFCommand_InvalidTarget(t *testing.T) {
	e := newCLIEnv(t, unreachable)

	_, stderr, err := e.run(t, "what is this?\n/quit\n", "pdf")
	if err != nil {
		t.Fatalf("pdf error = %v", err)
	}
	if !strings.Contains(stderr, "Invalid file type") {
		t.Errorf("expected invalid file notification, stderr: %s", stderr)
	}
	if n := len(e.sessions(t, internal.PDFHistoryKey)); n != 0 {
		t.Errorf("stored %d sessions, want 0", n)
	}
}

func TestPDFCommand_UploadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "indexer offline"})
	}))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	pdf := testutil.CreatePDFFixture(t, e.dir, "paper.pdf")

	_, stderr, err := e.run(t, "", "pdf", pdf)
	if err == nil {
		t.Fatal("expected an error when the upload fails")
	}
	if !strings.Contains(stderr, "Upload failed: indexer offline") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestPDFCommand_AskFails(t *testing.T) {
	ps := &paperServer{fail: true}
	srv := httptest.NewServer(ps.handler(t))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	pdf := testutil.CreatePDFFixture(t, e.dir, "paper.pdf")

	stdout, stderr, err := e.run(t, "Why?\n", "pdf", pdf)
	if err != nil {
		t.Fatalf("pdf error = %v", err)
	}
	if !strings.Contains(stdout, exchange.PDFFailureText) {
		t.Errorf("expected the failure text as the reply:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Failed to get answer: model overloaded") {
		t.Errorf("stderr = %s", stderr)
	}

	sessions := e.sessions(t, internal.PDFHistoryKey)
	if len(sessions) != 1 || len(sessions[0].Messages) != 3 {
		t.Fatalf("stored %+v, want one session with 3 messages", sessions)
	}
	if got := sessions[0].Messages[2].Content; got != exchange.PDFFailureText {
		t.Errorf("stored reply = %q", got)
	}
}

func TestPDFCommand_ResumeSession(t *testing.T) {
	ps := &paperServer{answer: "Multi-head attention."}
	srv := httptest.NewServer(ps.handler(t))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	e.seed(t)

	stdout, _, err := e.run(t, "And the key idea?\n", "pdf", "--session", "pdf-1")
	if err != nil {
		t.Fatalf("pdf error = %v", err)
	}
	if !strings.Contains(stdout, "The paper proposes X.") {
		t.Errorf("expected the stored transcript:\n%s", stdout)
	}
	if _, asked := ps.snapshot(); len(asked) != 1 || asked[0] != "pdf-1: And the key idea?" {
		t.Errorf("asked = %v", asked)
	}

	var got internal.ChatSession
	for _, s := range e.sessions(t, internal.PDFHistoryKey) {
		if s.ID == "pdf-1" {
			got = s
		}
	}
	if len(got.Messages) != 5 {
		t.Errorf("pdf-1 has %d messages, want 5", len(got.Messages))
	}
}

func TestPDFCommand_UnknownSession(t *testing.T) {
	e := newCLIEnv(t, unreachable)
	e.seed(t)

	if _, _, err := e.run(t, "", "pdf", "--session", "nope"); err == nil {
		t.Error("expected an error for an unknown session")
	}
}

func TestChatCommands(t *testing.T) {
	e := newCLIEnv(t, unreachable)
	e.seed(t)

	input := strings.Join([]string{"/help", "/history", "/open pdf-1", "/delete pdf-2", "/open", "/bogus", "/new", "/quit", "ignored"}, "\n")
	stdout, _, err := e.run(t, input, "pdf")
	if err != nil {
		t.Fatalf("pdf error = %v", err)
	}

	for _, want := range []string{
		"/open <id>",
		"Found 2 session(s)",
		"Reopened attention.pdf",
		"The paper proposes X.",
		"Deleted pdf-2",
		"usage: /open <id>",
		"unknown command /bogus",
		"New chat.",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}

	sessions := e.sessions(t, internal.PDFHistoryKey)
	if len(sessions) != 1 || sessions[0].ID != "pdf-1" {
		t.Errorf("remaining sessions = %+v", sessions)
	}
}

func TestRepoCommand(t *testing.T) {
	var (
		mu              sync.Mutex
		ingested, asked string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RepoURL   string `json:"repo_url"`
			SessionID string `json:"session_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		ingested = body.RepoURL
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		asked = body.Question
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"response": "It is written in Go."})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	repoURL := "https://github.com/acme/rockets"

	stdout, _, err := e.run(t, "Which language?\n", "repo", repoURL)
	if err != nil {
		t.Fatalf("repo error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if ingested != repoURL || asked != "Which language?" {
		t.Errorf("ingested %q, asked %q", ingested, asked)
	}
	for _, want := range []string{internal.RepoGreeting(repoURL), "It is written in Go."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}

	sessions := e.sessions(t, internal.RepoHistoryKey)
	if len(sessions) != 1 || sessions[0].Title != "acme/rockets" {
		t.Errorf("stored %+v", sessions)
	}
}

func TestRepoCommand_InvalidURL(t *testing.T) {
	e := newCLIEnv(t, unreachable)

	_, stderr, err := e.run(t, "", "repo", "not a url")
	if err == nil {
		t.Fatal("expected an error for an invalid repository URL")
	}
	if !strings.Contains(stderr, "Invalid repository URL") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestAssistantCommand(t *testing.T) {
	var (
		mu       sync.Mutex
		messages []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		messages = append(messages, body.Message)
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"response": "Practice system design."})
	}))
	defer srv.Close()

	e := newCLIEnv(t, srv.URL)
	stdout, _, err := e.run(t, "How do I prepare?\n\n/reset\nAnd then?\n/quit\n", "assistant")
	if err != nil {
		t.Fatalf("assistant error = %v", err)
	}
	if strings.Count(stdout, "Practice system design.") != 2 {
		t.Errorf("expected two replies:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Conversation cleared.") {
		t.Errorf("expected reset confirmation:\n%s", stdout)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(messages) != 2 || messages[1] != "And then?" {
		t.Errorf("messages = %v", messages)
	}
}

func TestAssistantCommand_Unreachable(t *testing.T) {
	e := newCLIEnv(t, unreachable)

	stdout, stderr, err := e.run(t, "Hello?\n", "assistant")
	if err != nil {
		t.Fatalf("assistant error = %v", err)
	}
	if !strings.Contains(stdout, exchange.AssistantFailureText) {
		t.Errorf("output = %s", stdout)
	}
	if !strings.Contains(stderr, "Connection Error") {
		t.Errorf("stderr = %s", stderr)
	}
}
