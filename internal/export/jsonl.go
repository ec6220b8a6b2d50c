package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/careertrack/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlMessage struct {
	Session   string        `json:"session"`
	Role      internal.Role `json:"role"`
	Content   string        `json:"content"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		line := jsonlMessage{
			Session: session.ID,
			Role:    msg.Role,
			Content: msg.Content,
		}
		if !msg.Timestamp.IsZero() {
			ts := msg.Timestamp
			line.Timestamp = &ts
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
