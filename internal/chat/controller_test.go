package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)

type askFunc func(ctx context.Context, req exchange.Request) (exchange.Reply, error)

func (f askFunc) Ask(ctx context.Context, req exchange.Request) (exchange.Reply, error) {
	return f(ctx, req)
}

func echo(text string) askFunc {
	return func(_ context.Context, req exchange.Request) (exchange.Reply, error) {
		return exchange.Reply{RequestID: req.ID, Text: text}, nil
	}
}

// sequentialIDs yields "id-1", "id-2", ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testTool(ex exchange.Exchanger) Tool {
	return Tool{
		Name:        "test",
		StorageKey:  "test-chat-history",
		Prepare:     func(context.Context, string, string) error { return nil },
		Title:       func(target string, _ time.Time) string { return "title " + target },
		Restore:     func(s internal.ChatSession) string { return s.Title },
		Exchanger:   ex,
		FailureText: "could not complete",
		Notices: Notices{
			SetupFailed:    "setup failed",
			EmptyQuestion:  internal.Notification{Title: "Empty question", Variant: internal.VariantDestructive},
			NotReady:       internal.Notification{Title: "Not ready", Variant: internal.VariantDestructive},
			ExchangeFailed: "exchange failed",
		},
	}
}

type fixture struct {
	kv    *internal.MemoryKV
	store *internal.SessionStore
	notes *internal.RecordingNotifier
	ctrl  *Controller
}

func newFixture(t *testing.T, tool Tool) *fixture {
	t.Helper()
	kv := internal.NewMemoryKV()
	store := internal.NewSessionStore(kv, tool.StorageKey, internal.NewActiveSession(), internal.WithClock(func() time.Time { return testNow }))
	notes := &internal.RecordingNotifier{}
	ctrl := NewController(tool, store,
		WithNotifier(notes),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	)
	return &fixture{kv: kv, store: store, notes: notes, ctrl: ctrl}
}

func (f *fixture) persisted(t *testing.T) []internal.ChatSession {
	t.Helper()
	raw, ok, err := f.kv.GetItem(f.store.StorageKey())
	require.NoError(t, err)
	if !ok {
		return nil
	}
	var sessions []internal.ChatSession
	require.NoError(t, json.Unmarshal([]byte(raw), &sessions))
	return sessions
}

func TestPDFQuestionIsAnsweredAndStored(t *testing.T) {
	dir := t.TempDir()
	paper := filepath.Join(dir, "attention.pdf")
	require.NoError(t, os.WriteFile(paper, []byte("%PDF-1.7\n"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/upload/abc-123":
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		case "/ask/abc-123":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "What is the main contribution?", body["question"])
			w.Header().Set(exchange.RequestIDHeader, r.Header.Get(exchange.RequestIDHeader))
			_, _ = w.Write([]byte(`{"response": "The paper proposes X."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tool := PDFTool(exchange.NewPDFClient(srv.URL))
	tool.Greeting = nil

	ids := []string{"abc-123", "req-1"}
	next := 0
	f := newFixture(t, tool)
	f.ctrl.newID = func() string { id := ids[next]; next++; return id }

	require.NoError(t, f.ctrl.Setup(context.Background(), paper))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, "abc-123", f.ctrl.SessionID())

	reply, err := f.ctrl.Submit(context.Background(), "What is the main contribution?")
	require.NoError(t, err)
	assert.Equal(t, "The paper proposes X.", reply.Content)

	want := []internal.ChatMessage{
		internal.NewUserMessage("What is the main contribution?", testNow),
		internal.NewAssistantMessage("The paper proposes X.", testNow),
	}
	assert.Equal(t, want, f.ctrl.Messages())

	stored, ok := f.store.GetChat("abc-123")
	require.True(t, ok)
	assert.Equal(t, want, stored.Messages)
	assert.Equal(t, "attention.pdf", stored.Title)

	persisted := f.persisted(t)
	require.Len(t, persisted, 1)
	assert.Equal(t, "abc-123", persisted[0].ID)
	assert.Len(t, persisted[0].Messages, 2)
}

func TestSerialExchangesKeepOrder(t *testing.T) {
	var n int
	f := newFixture(t, testTool(askFunc(func(_ context.Context, req exchange.Request) (exchange.Reply, error) {
		n++
		return exchange.Reply{RequestID: req.ID, Text: fmt.Sprintf("answer %d", n)}, nil
	})))
	require.NoError(t, f.ctrl.Setup(context.Background(), "doc"))

	const rounds = 5
	for i := 1; i <= rounds; i++ {
		_, err := f.ctrl.Submit(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 2*rounds)
	for i := 0; i < rounds; i++ {
		assert.Equal(t, internal.NewUserMessage(fmt.Sprintf("question %d", i+1), testNow), msgs[2*i])
		assert.Equal(t, internal.NewAssistantMessage(fmt.Sprintf("answer %d", i+1), testNow), msgs[2*i+1])
	}

	stored, ok := f.store.GetChat(f.ctrl.SessionID())
	require.True(t, ok)
	assert.Equal(t, msgs, stored.Messages)
	assert.Equal(t, 1, f.store.Len())
}

func TestSetupSeedsGreeting(t *testing.T) {
	tool := testTool(echo("hi"))
	tool.Greeting = func(target string) string { return "ready for " + target }
	tool.Notices.SetupDone = internal.Notification{Title: "done", Variant: internal.VariantSuccess}
	f := newFixture(t, tool)

	require.NoError(t, f.ctrl.Setup(context.Background(), "  paper.pdf "))
	assert.Equal(t, []internal.ChatMessage{internal.NewAssistantMessage("ready for paper.pdf", testNow)}, f.ctrl.Messages())
	assert.Equal(t, "title paper.pdf", f.ctrl.Title())
	assert.Equal(t, "paper.pdf", f.ctrl.Target())

	// the greeting alone is already a saved session
	id, ok := f.store.Active().ID()
	require.True(t, ok)
	assert.Equal(t, f.ctrl.SessionID(), id)
	assert.Equal(t, []internal.Notification{tool.Notices.SetupDone}, f.notes.Notifications())
}

func TestSetupFailureStaysNew(t *testing.T) {
	tool := testTool(echo("unused"))
	tool.Prepare = func(context.Context, string, string) error {
		return &internal.RemoteError{Endpoint: "/ingest", StatusCode: 400, Detail: "Repository not found"}
	}
	f := newFixture(t, tool)
	before := f.ctrl.SessionID()

	err := f.ctrl.Setup(context.Background(), "https://github.com/acme/missing")
	require.Error(t, err)
	assert.Equal(t, StateNew, f.ctrl.State())
	assert.Equal(t, before, f.ctrl.SessionID())
	assert.Empty(t, f.ctrl.Messages())
	assert.Zero(t, f.store.Len())

	sent := f.notes.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "setup failed", sent[0].Title)
	assert.Equal(t, "Repository not found", sent[0].Description)
}

func TestSetupRequiresTarget(t *testing.T) {
	called := false
	tool := testTool(echo("unused"))
	tool.Prepare = func(context.Context, string, string) error { called = true; return nil }
	tool.Notices.MissingTarget = internal.Notification{Title: "No file selected", Variant: internal.VariantDestructive}
	f := newFixture(t, tool)

	err := f.ctrl.Setup(context.Background(), "   ")
	var verr *internal.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.False(t, called)
	assert.Equal(t, []internal.Notification{tool.Notices.MissingTarget}, f.notes.Notifications())
}

func TestFailedExchangeAppendsOneMessage(t *testing.T) {
	f := newFixture(t, testTool(askFunc(func(context.Context, exchange.Request) (exchange.Reply, error) {
		return exchange.Reply{}, &internal.RemoteError{Endpoint: "/ask/x", StatusCode: 502}
	})))
	require.NoError(t, f.ctrl.Setup(context.Background(), "doc"))

	reply, err := f.ctrl.Submit(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, internal.NewAssistantMessage("could not complete", testNow), reply)

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, internal.RoleUser, msgs[0].Role)
	assert.Equal(t, "could not complete", msgs[1].Content)
	assert.Equal(t, StateReady, f.ctrl.State())

	persisted := f.persisted(t)
	require.Len(t, persisted, 1)
	assert.Len(t, persisted[0].Messages, 2)

	sent := f.notes.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "exchange failed", sent[0].Title)
	assert.Equal(t, internal.VariantDestructive, sent[0].Variant)
}

func TestSubmitRejections(t *testing.T) {
	var asked int
	f := newFixture(t, testTool(askFunc(func(_ context.Context, req exchange.Request) (exchange.Reply, error) {
		asked++
		return exchange.Reply{RequestID: req.ID, Text: "x"}, nil
	})))

	_, err := f.ctrl.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, internal.ErrNotReady)

	require.NoError(t, f.ctrl.Setup(context.Background(), "doc"))
	_, err = f.ctrl.Submit(context.Background(), " \t\n")
	var verr *internal.ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.Zero(t, asked)
	assert.Empty(t, f.ctrl.Messages())
	assert.Zero(t, f.store.Len())

	titles := []string{}
	for _, n := range f.notes.Notifications() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Not ready", "Empty question"}, titles)
}

func TestSubmitWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, testTool(askFunc(func(_ context.Context, req exchange.Request) (exchange.Reply, error) {
		close(entered)
		<-release
		return exchange.Reply{RequestID: req.ID, Text: "slow"}, nil
	})))
	require.NoError(t, f.ctrl.Setup(context.Background(), "doc"))

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Submit(context.Background(), "first")
		done <- err
	}()

	<-entered
	assert.Equal(t, StateExchanging, f.ctrl.State())
	_, err := f.ctrl.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, internal.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, f.ctrl.Messages(), 2)
}

func TestReplyForAbandonedSessionIsDropped(t *testing.T) {
	var f *fixture
	f = newFixture(t, testTool(askFunc(func(_ context.Context, req exchange.Request) (exchange.Reply, error) {
		f.ctrl.StartNew()
		return exchange.Reply{RequestID: req.ID, Text: "late"}, nil
	})))
	require.NoError(t, f.ctrl.Setup(context.Background(), "doc"))
	first := f.ctrl.SessionID()

	_, err := f.ctrl.Submit(context.Background(), "question")
	assert.ErrorIs(t, err, ErrStaleReply)
	assert.Equal(t, StateNew, f.ctrl.State())
	assert.Empty(t, f.ctrl.Messages())

	// the abandoned session keeps the question it was sent
	stored, ok := f.store.GetChat(first)
	require.True(t, ok)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "question", stored.Messages[0].Content)
}

func TestReplyWithForeignRequestIDIsKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(exchange.RequestIDHeader, "proxy-generated-id")
		switch r.URL.Path {
		case "/ingest":
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		case "/chat":
			_, _ = w.Write([]byte(`{"response":"The paper proposes X."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newFixture(t, RepoTool(exchange.NewRepoClient(srv.URL)))
	require.NoError(t, f.ctrl.Setup(context.Background(), "https://github.com/acme/widgets"))
	require.Len(t, f.ctrl.Messages(), 1)

	reply, err := f.ctrl.Submit(context.Background(), "What is the main contribution?")
	require.NoError(t, err)
	assert.Equal(t, "The paper proposes X.", reply.Content)
	assert.Equal(t, StateReady, f.ctrl.State())

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, internal.RoleUser, msgs[1].Role)
	assert.Equal(t, reply, msgs[2])

	stored := f.persisted(t)
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].Messages, 3)
}

func TestSelectAndStartNew(t *testing.T) {
	f := newFixture(t, testTool(echo("fine")))
	stored := []internal.ChatMessage{
		internal.NewUserMessage("old question", testNow.Add(-time.Hour)),
		internal.NewAssistantMessage("old answer", testNow.Add(-time.Hour)),
	}
	require.NoError(t, f.store.SaveChat("past", "notes.pdf", stored))
	f.store.Active().Clear()

	require.NoError(t, f.ctrl.Select("past"))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, "past", f.ctrl.SessionID())
	assert.Equal(t, "notes.pdf", f.ctrl.Target())
	assert.Equal(t, stored, f.ctrl.Messages())
	assert.True(t, f.store.Active().Is("past"))

	_, err := f.ctrl.Submit(context.Background(), "follow up")
	require.NoError(t, err)
	got, _ := f.store.GetChat("past")
	assert.Len(t, got.Messages, 4)

	f.ctrl.StartNew()
	assert.Equal(t, StateNew, f.ctrl.State())
	assert.NotEqual(t, "past", f.ctrl.SessionID())
	assert.Empty(t, f.ctrl.Messages())
	_, active := f.store.Active().ID()
	assert.False(t, active)

	assert.ErrorIs(t, f.ctrl.Select("missing"), internal.ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, testTool(echo("fine")))
	msgs := []internal.ChatMessage{internal.NewUserMessage("q", testNow)}
	require.NoError(t, f.store.SaveChat("a", "A", msgs))
	require.NoError(t, f.store.SaveChat("b", "B", msgs))
	require.NoError(t, f.ctrl.Select("b"))

	// deleting another session leaves the current one alone
	require.NoError(t, f.ctrl.Delete("a"))
	assert.Equal(t, "b", f.ctrl.SessionID())
	assert.True(t, f.store.Active().Is("b"))

	require.NoError(t, f.ctrl.Delete("b"))
	assert.Equal(t, StateNew, f.ctrl.State())
	assert.NotEqual(t, "b", f.ctrl.SessionID())
	_, active := f.store.Active().ID()
	assert.False(t, active)
	assert.Empty(t, f.ctrl.History())
	assert.Nil(t, f.persisted(t))

	assert.ErrorIs(t, f.ctrl.Delete("b"), internal.ErrSessionNotFound)
}

func TestRepoToolRestoresURL(t *testing.T) {
	tool := RepoTool(exchange.NewRepoClient("http://127.0.0.1:0"))
	session := internal.ChatSession{
		ID:    "r1",
		Title: "acme/widgets",
		Messages: []internal.ChatMessage{
			internal.NewAssistantMessage(internal.RepoGreeting("https://github.com/acme/widgets"), testNow),
		},
	}
	assert.Equal(t, "https://github.com/acme/widgets", tool.Restore(session))
	assert.Equal(t, "acme/widgets", tool.Title("https://github.com/acme/widgets.git", testNow))
	assert.Equal(t, internal.RepoHistoryKey, tool.StorageKey)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "new", StateNew.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "exchanging", StateExchanging.String())
	assert.Equal(t, "State(7)", State(7).String())
}
