package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"golang.org/x/sync/semaphore"
)

// Conversation is an unpersisted chat with the general assistant.
// It needs no setup and is lost on Reset.
type Conversation struct {
	mu       sync.Mutex
	busy     *semaphore.Weighted
	adapter  *exchange.Adapter
	messages []internal.ChatMessage
	epoch    int
	now      func() time.Time
}

// NewConversation starts an empty conversation with the assistant at client.
func NewConversation(client exchange.Exchanger, notifier internal.Notifier) *Conversation {
	if notifier == nil {
		notifier = discard{}
	}
	c := &Conversation{
		busy: semaphore.NewWeighted(1),
		now:  time.Now,
	}
	c.adapter = &exchange.Adapter{
		Exchanger:          client,
		Notifier:           notifier,
		FailureText:        exchange.AssistantFailureText,
		FailureTitle:       "Connection Error",
		FailureDescription: "Could not connect to the career assistant. Please try again later.",
		Now:                func() time.Time { return c.now() },
	}
	return c
}

// Send appends the user message and the reply. Blank input is ignored.
func (c *Conversation) Send(ctx context.Context, text string) (internal.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return internal.ChatMessage{}, &internal.ValidationError{Field: "message", Message: "message is empty"}
	}
	if !c.busy.TryAcquire(1) {
		return internal.ChatMessage{}, internal.ErrBusy
	}
	defer c.busy.Release(1)

	c.mu.Lock()
	c.messages = append(c.messages, internal.NewUserMessage(text, c.now()))
	epoch := c.epoch
	c.mu.Unlock()

	result := c.adapter.Exchange(ctx, "", "", text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return internal.ChatMessage{}, ErrStaleReply
	}
	c.messages = append(c.messages, result.Message)
	return result.Message, nil
}

// Reset clears the conversation.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.epoch++
	c.mu.Unlock()
}

// Messages returns a copy of the conversation.
func (c *Conversation) Messages() []internal.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]internal.ChatMessage(nil), c.messages...)
}
