package internal

import (
	"time"
)

// TestTime is the fixed clock used by test sessions.
var TestTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// CreateTestSession creates a test session with sample data
func CreateTestSession(id string) *ChatSession {
	return &ChatSession{
		ID:        id,
		Title:     "paper.pdf",
		Timestamp: TestTime,
		Messages: []ChatMessage{
			NewUserMessage("What is the main contribution?", TestTime),
			NewAssistantMessage("The paper proposes X.", TestTime.Add(2*time.Second)),
		},
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []ChatMessage) *ChatSession {
	return &ChatSession{
		ID:        id,
		Title:     "Test Conversation",
		Timestamp: TestTime,
		Messages:  messages,
	}
}
