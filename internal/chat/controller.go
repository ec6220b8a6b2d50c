// Package chat drives one conversation of a tool: setup, serialized exchanges
// and persistence of every change into the tool's session store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"golang.org/x/sync/semaphore"
)

// ErrStaleReply is returned when a reply arrives for a request the
// controller no longer waits for (the user switched sessions meanwhile).
var ErrStaleReply = errors.New("reply does not match the pending request")

// State of a controller.
type State int

const (
	StateNew State = iota
	StateReady
	StateExchanging
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateExchanging:
		return "exchanging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets the side channel for notifications
func WithNotifier(n internal.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides how session and request ids are created
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// Controller orchestrates the active session of one tool.
type Controller struct {
	mu       sync.Mutex
	busy     *semaphore.Weighted
	tool     Tool
	store    *internal.SessionStore
	active   *internal.ActiveSession
	adapter  *exchange.Adapter
	notifier internal.Notifier
	now      func() time.Time
	newID    func() string

	state     State
	sessionID string
	title     string
	target    string
	messages  []internal.ChatMessage
	pending   string
}

// NewController creates a controller in the New state. It shares the
// store's active-session reference.
func NewController(tool Tool, store *internal.SessionStore, opts ...Option) *Controller {
	c := &Controller{
		busy:     semaphore.NewWeighted(1),
		tool:     tool,
		store:    store,
		active:   store.Active(),
		notifier: discard{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.adapter = &exchange.Adapter{
		Exchanger:    tool.Exchanger,
		Notifier:     c.notifier,
		FailureText:  tool.FailureText,
		FailureTitle: tool.Notices.ExchangeFailed,
		Now:          c.now,
	}
	c.sessionID = c.newID()
	return c
}

// Setup runs the tool's setup call for a fresh session. On success the
// conversation is seeded with the tool's greeting, if any, and the controller is Ready.
// On failure the controller stays New.
func (c *Controller) Setup(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		c.notifier.Notify(c.tool.Notices.MissingTarget)
		return &internal.ValidationError{Field: c.tool.Name + " target", Message: c.tool.Notices.MissingTarget.Description}
	}
	if !c.busy.TryAcquire(1) {
		return internal.ErrBusy
	}
	defer c.busy.Release(1)

	sessionID := c.newID()
	if err := c.tool.Prepare(ctx, sessionID, target); err != nil {
		var verr *internal.ValidationError
		if errors.As(err, &verr) {
			c.notifier.Notify(internal.Notification{Title: c.tool.Notices.InvalidTarget, Description: verr.Message, Variant: internal.VariantDestructive})
		} else {
			internal.LogError("%s setup failed: %v", c.tool.Name, err)
			c.notifier.Notify(internal.Notification{Title: c.tool.Notices.SetupFailed, Description: exchange.FailureDetail(err), Variant: internal.VariantDestructive})
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sessionID = sessionID
	c.target = target
	c.title = c.tool.Title(target, now)
	c.messages = nil
	if c.tool.Greeting != nil {
		if greeting := c.tool.Greeting(target); greeting != "" {
			c.messages = append(c.messages, internal.NewAssistantMessage(greeting, now))
		}
	}
	c.pending = ""
	c.state = StateReady
	c.persist()

	if c.tool.Notices.SetupDone.Title != "" {
		c.notifier.Notify(c.tool.Notices.SetupDone)
	}
	internal.LogInfo("%s session %s ready (%s)", c.tool.Name, sessionID, c.title)
	return nil
}

// Submit sends utterance and appends the user message and the reply (or the
// failure message) to the conversation. Exchange failures are not returned;
// they are reported on the notifier and the failure message is the reply.
// Errors are returned only when nothing was sent.
func (c *Controller) Submit(ctx context.Context, utterance string) (internal.ChatMessage, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		c.notifier.Notify(c.tool.Notices.EmptyQuestion)
		return internal.ChatMessage{}, &internal.ValidationError{Field: "question", Message: c.tool.Notices.EmptyQuestion.Description}
	}

	if !c.busy.TryAcquire(1) {
		return internal.ChatMessage{}, internal.ErrBusy
	}
	defer c.busy.Release(1)

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		c.notifier.Notify(c.tool.Notices.NotReady)
		return internal.ChatMessage{}, internal.ErrNotReady
	}
	requestID := c.newID()
	sessionID := c.sessionID
	c.pending = requestID
	c.state = StateExchanging
	c.messages = append(c.messages, internal.NewUserMessage(utterance, c.now()))
	c.persist()
	c.mu.Unlock()

	result := c.adapter.Exchange(ctx, sessionID, requestID, utterance)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != requestID {
		internal.LogWarn("dropping reply %s: pending request is %q", requestID, c.pending)
		return internal.ChatMessage{}, ErrStaleReply
	}

	c.pending = ""
	c.state = StateReady
	c.messages = append(c.messages, result.Message)
	c.persist()
	return result.Message, nil
}

// StartNew abandons the current conversation: fresh id, no messages, no active session.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.sessionID = c.newID()
	c.title = ""
	c.target = ""
	c.messages = nil
	c.pending = ""
	c.state = StateNew
	c.active.Clear()
}

// Select reopens a stored session; it is Ready immediately.
func (c *Controller) Select(id string) error {
	session, ok := c.store.GetChat(id)
	if !ok {
		return fmt.Errorf("%s session %s: %w", c.tool.Name, id, internal.ErrSessionNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = session.ID
	c.title = session.Title
	c.target = c.tool.Restore(session)
	c.messages = session.Messages
	c.pending = ""
	c.state = StateReady
	c.active.Set(session.ID)
	return nil
}

// Delete removes a stored session. Deleting the current one starts a new chat.
func (c *Controller) Delete(id string) error {
	if _, ok := c.store.GetChat(id); !ok {
		return fmt.Errorf("%s session %s: %w", c.tool.Name, id, internal.ErrSessionNotFound)
	}
	if err := c.store.DeleteChat(id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == id {
		c.reset()
	}
	return nil
}

// persist saves the whole conversation while a session is set up.
// Save failures are logged; the conversation itself is not affected.
func (c *Controller) persist() {
	if c.state == StateNew || len(c.messages) == 0 {
		return
	}
	if err := c.store.SaveChat(c.sessionID, c.title, c.messages); err != nil {
		internal.LogError("Error saving chat history: %v", err)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// Target is the file or repository URL the session was set up with.
func (c *Controller) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []internal.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]internal.ChatMessage(nil), c.messages...)
}

// History lists the tool's stored sessions.
func (c *Controller) History() []internal.ChatSession {
	return c.store.Sessions()
}

// Tool returns the tool this controller drives.
func (c *Controller) Tool() Tool {
	return c.tool
}

type discard struct{}

func (discard) Notify(internal.Notification) {}
