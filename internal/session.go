package internal

import (
	"encoding/json"
	"time"
)

// Role distinguishes the human author from the automated counterpart.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one utterance. Timestamp is set at creation and never changed.
type ChatMessage struct {
	Content   string    `json:"content" yaml:"content"`
	Role      Role      `json:"role" yaml:"role"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewUserMessage creates a user-role message stamped with now.
func NewUserMessage(content string, now time.Time) ChatMessage {
	return ChatMessage{Content: content, Role: RoleUser, Timestamp: now}
}

// NewAssistantMessage creates an assistant-role message stamped with now.
func NewAssistantMessage(content string, now time.Time) ChatMessage {
	return ChatMessage{Content: content, Role: RoleAssistant, Timestamp: now}
}

// IsUser reports whether the message was written by the human.
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}

// UnmarshalJSON accepts both the role form and the older isUser form
// written by the general assistant. Any other role is read as assistant so
// one odd record cannot make a whole history undecodable.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content   string    `json:"content"`
		Role      Role      `json:"role"`
		IsUser    *bool     `json:"isUser"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	role := raw.Role
	if role == "" && raw.IsUser != nil {
		role = RoleAssistant
		if *raw.IsUser {
			role = RoleUser
		}
	}
	if !role.Valid() {
		LogWarn("unknown message role %q, reading it as %s", role, RoleAssistant)
		role = RoleAssistant
	}

	*m = ChatMessage{Content: raw.Content, Role: role, Timestamp: raw.Timestamp}
	return nil
}

// ChatSession is one persisted conversation of a tool.
type ChatSession struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
}

// Clone returns a copy whose message slice does not alias s.
func (s ChatSession) Clone() ChatSession {
	s.Messages = append([]ChatMessage(nil), s.Messages...)
	return s
}

// FirstMessage returns the first message with the given role.
func (s ChatSession) FirstMessage(role Role) (ChatMessage, bool) {
	for _, msg := range s.Messages {
		if msg.Role == role {
			return msg, true
		}
	}
	return ChatMessage{}, false
}
