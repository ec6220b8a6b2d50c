package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/careertrack/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *internal.ChatSession, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// document is the structured form written by the JSON and YAML exporters.
type document struct {
	ID           string                 `json:"id" yaml:"id"`
	Title        string                 `json:"title" yaml:"title"`
	UpdatedAt    time.Time              `json:"updated_at" yaml:"updated_at"`
	MessageCount int                    `json:"message_count" yaml:"message_count"`
	Messages     []internal.ChatMessage `json:"messages" yaml:"messages"`
}

func newDocument(session *internal.ChatSession) document {
	msgs := session.Messages
	if msgs == nil {
		msgs = []internal.ChatMessage{}
	}
	return document{
		ID:           session.ID,
		Title:        session.Title,
		UpdatedAt:    session.Timestamp,
		MessageCount: len(msgs),
		Messages:     msgs,
	}
}
